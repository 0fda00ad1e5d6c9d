package datasource

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// decodeHTMLTable reads the first <table> of a page, such as a spreadsheet
// published to the web. The header is the first row containing a known
// column name; rows above it (column letters, titles) are ignored.
func decodeHTMLTable(data []byte) (decoded, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return decoded{}, fmt.Errorf("parse html: %w", err)
	}
	table := findElement(doc, "table")
	if table == nil {
		return decoded{}, errEmptyTable
	}

	var (
		header []string
		d      decoded
		rowNum int
	)
	walkRows(table, func(tr *html.Node) {
		rowNum++
		cells := rowCells(tr)
		if header == nil {
			if hasKnownColumn(cells) {
				header = cells
				d.header = headerSet(header)
			}
			return
		}
		rec := toRecord(header, cells, rowNum)
		if rec.empty() {
			return
		}
		d.rows = append(d.rows, rec)
	})
	if header == nil {
		return decoded{}, errEmptyTable
	}
	return d, nil
}

// empty reports whether every known column of the row is blank. Sheets add
// row numbers and padding cells, so other columns do not count.
func (r record) empty() bool {
	for col := range knownColumns {
		if r.get(col) != "" {
			return false
		}
	}
	return true
}

func hasKnownColumn(cells []string) bool {
	for _, c := range cells {
		if knownColumns[c] {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// walkRows calls fn for every <tr> of table, skipping nested tables.
func walkRows(table *html.Node, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tr":
				fn(c)
			case "table":
			default:
				walk(c)
			}
		}
	}
	walk(table)
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.TrimSpace(getTextContent(c)))
		}
	}
	return cells
}

func getTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			sb.WriteString(" ")
			continue
		}
		sb.WriteString(getTextContent(c))
	}
	return sb.String()
}
