package schedule

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the bar list.
const SheetName = "Bar schedule"

// Columns are the headings of the written tables.
var Columns = []string{
	"Mark", "Group", "Dia (mm)", "Grade", "Mandrel", "Shape", "No.", "Length (mm)", "Total (m)", "Mass (kg)",
}

func (r Row) cells() []any {
	return []any{
		r.Mark, r.Group, r.Diameter, r.Grade, r.Mandrel, r.Shape, r.Count,
		r.Length, round(r.Total, 3), round(r.Mass, 2),
	}
}

func round(x float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(x*p+0.5)) / p
}

// ---------------------------------------------------------------------------
// Workbook
// ---------------------------------------------------------------------------

// WriteXLSX writes the schedule as a workbook: the bar list with a total
// row, then a per-diameter summary.
func (s *Schedule) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}

	row := 1
	put := func(values []any, style int) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
		if style != 0 {
			last, err := excelize.CoordinatesToCellName(len(values), row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(SheetName, cell, last, style); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	steps := [][]any{{"Stair", s.Stair}, {"Steel", s.Steel}, {}}
	for _, v := range steps {
		if err := put(v, 0); err != nil {
			return fmt.Errorf("schedule workbook: %w", err)
		}
	}
	if err := put(toAny(Columns), bold); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}
	for _, r := range s.Rows {
		if err := put(r.cells(), 0); err != nil {
			return fmt.Errorf("schedule workbook: mark %s: %w", r.Mark, err)
		}
	}
	total := []any{"Total", "", "", "", "", "", s.BarCount(), "", "", round(s.TotalMass(), 2)}
	if err := put(total, bold); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}

	row++
	if err := put([]any{"Dia (mm)", "Total (m)", "Mass (kg)"}, bold); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}
	for _, d := range s.MassByDiameter() {
		if err := put([]any{d.Diameter, round(d.Length, 3), round(d.Mass, 2)}, 0); err != nil {
			return fmt.Errorf("schedule workbook: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 26); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("schedule workbook: %w", err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// ---------------------------------------------------------------------------
// PDF
// ---------------------------------------------------------------------------

// PDFOptions stamp the printed schedule.
type PDFOptions struct {
	Author string
	// Date is printed in the heading and set as the creation date. The
	// zero value means now.
	Date time.Time
}

var pdfWidths = []float64{14, 52, 18, 22, 18, 14, 14, 26, 24, 24}

// WritePDF prints the schedule on landscape A4 pages.
func (s *Schedule) WritePDF(w io.Writer, opts PDFOptions) error {
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Bar schedule "+s.Stair, true)
	pdf.SetAuthor(opts.Author, true)
	pdf.SetCreator("stairkit", true)
	pdf.SetCreationDate(opts.Date)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for i, c := range Columns {
			pdf.CellFormat(pdfWidths[i], 7, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, "Bar schedule: "+s.Stair, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		line := fmt.Sprintf("Steel %s    Date %s", s.Steel, opts.Date.Format("2006-01-02"))
		if opts.Author != "" {
			line += "    Author " + opts.Author
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		pdf.Ln(2)
		header()
	})
	pdf.AddPage()

	for _, r := range s.Rows {
		for i, v := range r.cells() {
			align := "R"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(pdfWidths[i], 6, format(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 9)
	total := []any{"Total", "", "", "", "", "", s.BarCount(), "", "", round(s.TotalMass(), 2)}
	for i, v := range total {
		pdf.CellFormat(pdfWidths[i], 6, format(v), "1", 0, "R", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range []string{"Dia (mm)", "Total (m)", "Mass (kg)"} {
		pdf.CellFormat(26, 6, c, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, d := range s.MassByDiameter() {
		for _, v := range []any{d.Diameter, round(d.Length, 3), round(d.Mass, 2)} {
			pdf.CellFormat(26, 6, format(v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("schedule PDF: %w", err)
	}
	return nil
}

func format(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%g", x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
