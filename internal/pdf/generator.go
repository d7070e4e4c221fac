package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the individual-contract sheet: header, parties,
// dispatch period, default rates and the worker roster with resolved
// rates, plus signature lines.
func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Individual Labor Dispatch Contract", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract No. %s", doc.Contract.ContractNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Dispatch period: %s - %s",
		formatDate(doc.Contract.DispatchStartDate), formatDate(doc.Contract.DispatchEndDate)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Client site", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 5, safeValue(doc.Site.Name), "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Address: %s", safeValue(doc.Site.Address)), "", "L", false)
	if doc.Site.ConflictDate != nil {
		pdf.MultiCell(0, 5, fmt.Sprintf("Statutory conflict date: %s", formatDate(*doc.Site.ConflictDate)), "", "L", false)
	}
	pdf.Ln(2)

	addContactBlock(pdf, g.fontName, "Complaint handler", doc.Contract.ComplaintHandler)
	pdf.Ln(2)
	addContactBlock(pdf, g.fontName, "Dispatch manager", doc.Contract.DispatchManager)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Workers and rates", "", 1, "L", false, 0, "")

	headers := []string{"Worker", "Hourly", "Overtime", "Night", "Holiday", "Source"}
	colWidths := []float64{60, 24, 24, 24, 24, 24}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, entry := range doc.Workers {
		row := []string{
			entry.Worker.Name,
			formatAmount(entry.Rates.Hourly),
			formatAmount(entry.Rates.Overtime),
			formatAmount(entry.Rates.Night),
			formatAmount(entry.Rates.Holiday),
			string(entry.Rates.Source),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(4)
	if doc.Contract.Notes != "" {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, doc.Contract.Notes, "", "L", false)
		pdf.Ln(2)
	}

	if doc.Contract.SignedAt != nil {
		pdf.SetFont(g.fontName, "", 10)
		ref := ""
		if doc.Contract.SignedDocumentRef != nil {
			ref = *doc.Contract.SignedDocumentRef
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("Signed %s (ref: %s)", formatDate(*doc.Contract.SignedAt), safeValue(ref)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")
	signatureBlock(pdf, g.fontName, "Dispatching agency")
	signatureBlock(pdf, g.fontName, "Client site")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addContactBlock(pdf *gofpdf.Fpdf, fontName, title string, person model.ContactPerson) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		fmt.Sprintf("%s / %s", safeValue(person.Department), safeValue(person.Position)),
		fmt.Sprintf("Name: %s", safeValue(person.Name)),
		fmt.Sprintf("Phone: %s", safeValue(person.Phone)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: ______________________", label), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.0f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
