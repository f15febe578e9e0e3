package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"timesheet/internal/domain/attendance"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

func (f Format) Filename(ledgerID string) string {
	return fmt.Sprintf("timesheet-%s.%s", ledgerID, f)
}

// Write renders the ledger in the given format.
func Write(w io.Writer, f Format, ledger attendance.Ledger) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, ledger)
	case FormatXLSX:
		return WriteXLSX(w, ledger)
	case FormatPDF:
		return WritePDF(w, ledger)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func WriteCSV(w io.Writer, ledger attendance.Ledger) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(attendance.Header); err != nil {
		return err
	}
	for _, rec := range ledger.Records {
		if err := writer.Write(rec.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, ledger attendance.Ledger) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet := ledger.ID
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(attendance.Header))
	for i, title := range attendance.Header {
		header[i] = title
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range ledger.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, 0, attendance.Columns)
		for col, value := range rec.Row() {
			if col == attendance.ColHours && rec.Hours.Valid {
				values = append(values, rec.Hours.Decimal.InexactFloat64())
				continue
			}
			values = append(values, value)
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := file.WriteTo(w)
	return err
}

var pdfColumnWidths = []float64{24, 16, 34, 36, 36, 14, 30}

func WritePDF(w io.Writer, ledger attendance.Ledger) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Timesheet")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", ledger.ID))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	for i, title := range attendance.Header {
		pdf.CellFormat(pdfColumnWidths[i], 7, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	total := decimal.Zero
	for _, rec := range ledger.Records {
		for i, value := range rec.Row() {
			pdf.CellFormat(pdfColumnWidths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		if rec.Hours.Valid {
			total = total.Add(rec.Hours.Decimal)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total hours: %s", total.StringFixed(2)))

	return pdf.Output(w)
}
