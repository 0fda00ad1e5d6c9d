// Package report renders a selection as a printable PDF health plan.
package report

import (
	"fmt"
	"healthhelper/internal/models"
	"healthhelper/internal/render"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var (
	cBlue    = [3]int{29, 78, 216}
	cBlueBg  = [3]int{219, 234, 254}
	cGreen   = [3]int{22, 128, 61}
	cGreenBg = [3]int{220, 252, 231}
	cCream   = [3]int{239, 246, 255}
	cInk90   = [3]int{38, 38, 38}
	cInk50   = [3]int{107, 107, 107}
	cInk30   = [3]int{160, 160, 160}
	cInk08   = [3]int{235, 235, 235}
	cStripe  = [3]int{249, 250, 251}
	cWhite   = [3]int{255, 255, 255}
)

const (
	pageW    = 210.0
	pageH    = 297.0
	marginL  = 20.0
	marginR  = 20.0
	marginT  = 20.0
	contentW = pageW - marginL - marginR
	lineH    = 4.5
)

var (
	screeningCols = []float64{55, 45, 70}
	fitnessCols   = []float64{38, 32, 28, 24, 48}
)

func setFill(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }

// DefaultName is the file name used when no output path is given.
func DefaultName(now time.Time) string {
	return "health-plan-" + now.Format("2006-01-02") + ".pdf"
}

// Write renders the plan for sel to w.
func Write(w io.Writer, sel models.Selection, now time.Time) error {
	plan := render.View(sel)
	dateDisplay := now.Format("January 2, 2006")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginL, 15, marginR)
	pdf.SetAutoPageBreak(false, 20)
	pdf.SetTitle(render.Title+" - "+render.PlanHeading, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	isFirstPage := true

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		setDraw(pdf, cInk08)
		pdf.SetLineWidth(0.3)
		pdf.Line(marginL, pdf.GetY(), pageW-marginR, pdf.GetY())
		pdf.SetY(-11)
		pdf.SetFont("Helvetica", "", 6.5)
		setText(pdf, cInk30)
		pdf.SetX(marginL)
		pdf.CellFormat(contentW/2, 8, render.LastUpdated, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.SetHeaderFunc(func() {
		if isFirstPage {
			return
		}
		pdf.SetY(8)
		pdf.SetX(marginL)
		pdf.SetFont("Helvetica", "B", 8)
		setText(pdf, cBlue)
		pdf.CellFormat(contentW/2, 4, render.Title, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		setText(pdf, cInk30)
		pdf.CellFormat(contentW/2, 4, "Plan of "+dateDisplay, "", 0, "R", false, 0, "")
		setDraw(pdf, cBlue)
		pdf.SetLineWidth(0.5)
		pdf.Line(marginL, 13.5, pageW-marginR, 13.5)
	})

	pdf.AddPage()
	isFirstPage = false

	// title band
	headerH := 48.0
	setFill(pdf, cBlue)
	pdf.Rect(0, 0, pageW, headerH, "F")

	pdf.SetXY(marginL, 14)
	pdf.SetFont("Helvetica", "B", 26)
	setText(pdf, cWhite)
	pdf.CellFormat(contentW, 10, render.Title, "", 1, "L", false, 0, "")

	pdf.SetXY(marginL, 26)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(219, 234, 254)
	pdf.CellFormat(contentW, 6, render.Subtitle, "", 1, "L", false, 0, "")

	pdf.SetXY(marginL, 35)
	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetTextColor(191, 219, 254)
	pdf.CellFormat(contentW, 5, "Generated on "+dateDisplay, "", 1, "L", false, 0, "")

	// profile
	pdf.SetY(headerH + 10)
	sectionLabel(pdf, render.PlanHeading)

	fields := render.ProfileFields(plan.Profile)
	colW := contentW / 3
	rows := (len(fields) + 2) / 3
	boxY := pdf.GetY()
	boxH := float64(rows)*11 + 6
	setFill(pdf, cCream)
	pdf.RoundedRect(marginL, boxY, contentW, boxH, 3, "1234", "F")
	for i, f := range fields {
		x := marginL + 6 + colW*float64(i%3)
		y := boxY + 5 + 11*float64(i/3)
		profileCell(pdf, x, y, colW, f.Label, tr(f.Value))
	}

	pdf.SetXY(marginL, boxY+boxH+4)
	pdf.SetFont("Helvetica", "I", 8)
	setText(pdf, cInk50)
	pdf.MultiCell(contentW, lineH, tr(render.GuidelinesNote), "", "L", false)
	pdf.Ln(6)

	// screenings
	tableTitle(pdf, render.ScreeningsTitle, cBlue)
	tableHeader(pdf, screeningCols, []string{"Screening/Test", "Frequency", "Notes"}, cBlueBg)
	for i, s := range plan.Screenings {
		tableRow(pdf, tr, screeningCols, []string{s.Test, s.Frequency, s.Notes}, i%2 == 0)
	}
	pdf.Ln(8)

	if len(plan.Fitness) > 0 {
		ensureSpace(pdf, 30)
		tableTitle(pdf, render.FitnessTitle, cGreen)
		tableHeader(pdf, fitnessCols, []string{"Activity Type", "Frequency", "Duration", "Intensity", "Notes"}, cGreenBg)
		for i, f := range plan.Fitness {
			tableRow(pdf, tr, fitnessCols, []string{f.ActivityType, f.Frequency, f.Duration, f.Intensity, f.Notes}, i%2 == 0)
		}
		pdf.Ln(8)
	}

	// reminders
	ensureSpace(pdf, 40)
	sectionLabel(pdf, render.RemindersTitle)
	pdf.SetFont("Helvetica", "", 8.5)
	setText(pdf, cInk90)
	for _, r := range render.Reminders {
		y := ensureSpace(pdf, 2*lineH)
		setFill(pdf, cBlue)
		pdf.Circle(marginL+1.5, y+2.2, 0.8, "F")
		pdf.SetXY(marginL+5, y)
		pdf.MultiCell(contentW-5, lineH, tr(r), "", "L", false)
		pdf.Ln(1)
	}

	pdf.Ln(4)
	pdf.SetX(marginL)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, cInk50)
	pdf.MultiCell(contentW, 4, tr(render.FooterNote), "", "L", false)
	if plan.ID != "" {
		pdf.SetX(marginL)
		pdf.CellFormat(contentW, 4, "Plan ID: "+plan.ID, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

// ensureSpace adds a page when fewer than needed mm remain above the footer.
func ensureSpace(pdf *gofpdf.Fpdf, needed float64) float64 {
	y := pdf.GetY()
	if y+needed > pageH-25 {
		pdf.AddPage()
		pdf.SetY(marginT)
		return marginT
	}
	return y
}

func sectionLabel(pdf *gofpdf.Fpdf, label string) {
	pdf.SetX(marginL)
	pdf.SetFont("Helvetica", "B", 8)
	setText(pdf, cInk30)
	pdf.CellFormat(contentW, 4, label, "", 1, "L", false, 0, "")
	pdf.Ln(3)
}

func tableTitle(pdf *gofpdf.Fpdf, title string, c [3]int) {
	y := ensureSpace(pdf, 20)
	setFill(pdf, c)
	pdf.Rect(marginL, y, contentW, 9, "F")
	pdf.SetXY(marginL+4, y+2)
	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, cWhite)
	pdf.CellFormat(contentW-8, 5, title, "", 0, "L", false, 0, "")
	pdf.SetY(y + 9)
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, labels []string, bg [3]int) {
	y := pdf.GetY()
	setFill(pdf, bg)
	pdf.Rect(marginL, y, contentW, 7, "F")
	pdf.SetFont("Helvetica", "B", 8)
	setText(pdf, cInk90)
	x := marginL
	for i, l := range labels {
		pdf.SetXY(x+1.5, y+1)
		pdf.CellFormat(widths[i]-3, 5, l, "", 0, "L", false, 0, "")
		x += widths[i]
	}
	pdf.SetY(y + 7)
}

// tableRow draws one row, wrapping every cell to its column width.
func tableRow(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, cells []string, stripe bool) {
	wrapped := make([][][]byte, len(cells))
	maxLines := 1
	for i, c := range cells {
		pdf.SetFont("Helvetica", cellStyle(i), 8)
		wrapped[i] = pdf.SplitLines([]byte(tr(c)), widths[i]-3)
		if len(wrapped[i]) > maxLines {
			maxLines = len(wrapped[i])
		}
	}
	h := float64(maxLines)*lineH + 2

	y := ensureSpace(pdf, h)
	if stripe {
		setFill(pdf, cStripe)
		pdf.Rect(marginL, y, contentW, h, "F")
	}
	setDraw(pdf, cInk08)
	pdf.SetLineWidth(0.2)
	pdf.Line(marginL, y+h, marginL+contentW, y+h)

	x := marginL
	for i := range cells {
		pdf.SetFont("Helvetica", cellStyle(i), 8)
		if i == 0 {
			setText(pdf, cInk90)
		} else {
			setText(pdf, cInk50)
		}
		for j, line := range wrapped[i] {
			pdf.SetXY(x+1.5, y+1+float64(j)*lineH)
			pdf.CellFormat(widths[i]-3, lineH, string(line), "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	pdf.SetY(y + h)
}

// cellStyle is bold for the first column.
func cellStyle(col int) string {
	if col == 0 {
		return "B"
	}
	return ""
}

// profileCell draws a label and value pair in the profile grid.
func profileCell(pdf *gofpdf.Fpdf, x, y, w float64, label, value string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, cInk50)
	pdf.CellFormat(w-6, 3.5, label, "", 1, "L", false, 0, "")
	pdf.SetXY(x, y+4.5)
	pdf.SetFont("Helvetica", "B", 9.5)
	setText(pdf, cInk90)
	pdf.CellFormat(w-6, 4.5, value, "", 0, "L", false, 0, "")
}
