package datasource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"healthhelper/internal/models"
	"io"
	"strings"
)

// Column names of the reference tables.
const (
	colTest         = "test"
	colActivityType = "activityType"
	colFrequency    = "frequency"
	colNotes        = "notes"
	colRiskFactors  = "riskFactors"
	colAgeGroup     = "ageGroup"
	colGender       = "gender"
	colDuration     = "duration"
	colIntensity    = "intensity"
)

var knownColumns = map[string]bool{
	colTest: true, colActivityType: true, colFrequency: true, colNotes: true,
	colRiskFactors: true, colAgeGroup: true, colGender: true, colDuration: true, colIntensity: true,
}

var (
	errEmptyTable    = errors.New("table has no header row")
	errMissingColumn = errors.New("missing required column")
)

// decoded is a parsed table: its header columns and data rows.
type decoded struct {
	header map[string]bool
	rows   []record
}

// record is one data row keyed by header name. Absent cells read as "".
type record struct {
	line   int
	fields map[string]string
}

func (r record) get(col string) string {
	return strings.TrimSpace(r.fields[col])
}

// decodeTable parses a CSV or HTML table.
func decodeTable(t Table) (decoded, error) {
	if isHTML(t) {
		return decodeHTMLTable(t.Data)
	}
	return decodeCSV(t.Data)
}

func isHTML(t Table) bool {
	if strings.Contains(strings.ToLower(t.ContentType), "html") {
		return true
	}
	head := bytes.TrimSpace(bytes.TrimPrefix(t.Data, []byte("\xef\xbb\xbf")))
	return bytes.HasPrefix(head, []byte("<"))
}

func decodeCSV(data []byte) (decoded, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if err == io.EOF {
		return decoded{}, errEmptyTable
	}
	if err != nil {
		return decoded{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	d := decoded{header: headerSet(header)}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return decoded{}, fmt.Errorf("read row: %w", err)
		}
		if blankRow(row) {
			continue
		}
		line, _ := r.FieldPos(0)
		d.rows = append(d.rows, toRecord(header, row, line))
	}
	return d, nil
}

func headerSet(header []string) map[string]bool {
	h := make(map[string]bool, len(header))
	for _, name := range header {
		if name != "" {
			h[name] = true
		}
	}
	return h
}

func toRecord(header, cells []string, line int) record {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(cells) && name != "" {
			fields[name] = cells[i]
		}
	}
	return record{line: line, fields: fields}
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func requireColumns(header map[string]bool, cols ...string) error {
	for _, c := range cols {
		if !header[c] {
			return fmt.Errorf("%w %q", errMissingColumn, c)
		}
	}
	return nil
}

func screenings(d decoded) ([]models.Screening, error) {
	if err := requireColumns(d.header, colTest); err != nil {
		return nil, err
	}
	out := make([]models.Screening, 0, len(d.rows))
	for _, r := range d.rows {
		out = append(out, models.Screening{
			Test:        r.get(colTest),
			Frequency:   r.get(colFrequency),
			Notes:       r.get(colNotes),
			RiskFactors: models.ParseRiskFactors(r.get(colRiskFactors)),
		})
	}
	return out, nil
}

func ageSpecificRows(d decoded) ([]models.AgeSpecificRow, error) {
	if err := requireColumns(d.header, colAgeGroup, colGender, colTest); err != nil {
		return nil, err
	}
	out := make([]models.AgeSpecificRow, 0, len(d.rows))
	for _, r := range d.rows {
		out = append(out, models.AgeSpecificRow{
			AgeGroup:    models.AgeGroup(r.get(colAgeGroup)),
			Gender:      models.Audience(r.get(colGender)),
			Test:        r.get(colTest),
			Frequency:   r.get(colFrequency),
			Notes:       r.get(colNotes),
			RiskFactors: r.get(colRiskFactors),
			Line:        r.line,
		})
	}
	return out, nil
}

func fitnessActivities(d decoded) ([]models.FitnessActivity, error) {
	if err := requireColumns(d.header, colActivityType, colAgeGroup); err != nil {
		return nil, err
	}
	out := make([]models.FitnessActivity, 0, len(d.rows))
	for _, r := range d.rows {
		out = append(out, models.FitnessActivity{
			ActivityType: r.get(colActivityType),
			Frequency:    r.get(colFrequency),
			Duration:     r.get(colDuration),
			Intensity:    r.get(colIntensity),
			Notes:        r.get(colNotes),
			AgeGroup:     models.AgeGroup(r.get(colAgeGroup)),
			RiskFactors:  models.ParseRiskFactors(r.get(colRiskFactors)),
		})
	}
	return out, nil
}

// Decode turns the three raw tables of a source into a dataset.
func Decode(source string, tables Tables) (models.Dataset, error) {
	ds := models.Dataset{Source: source}

	baseRecs, err := decodeTable(tables.Base)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.Base.Name, err)
	}
	if ds.Base, err = screenings(baseRecs); err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.Base.Name, err)
	}

	ageRecs, err := decodeTable(tables.AgeSpecific)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.AgeSpecific.Name, err)
	}
	if ds.AgeSpecific, err = ageSpecificRows(ageRecs); err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.AgeSpecific.Name, err)
	}

	fitRecs, err := decodeTable(tables.Fitness)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.Fitness.Name, err)
	}
	if ds.Fitness, err = fitnessActivities(fitRecs); err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", tables.Fitness.Name, err)
	}
	return ds, nil
}
