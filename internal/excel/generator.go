package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract register workbook: a summary sheet with
// counts by status and a register sheet with one row per contract.
func (g *Generator) Generate(register model.ContractRegister) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, register); err != nil {
		return nil, err
	}

	registerSheet := "Register"
	file.NewSheet(registerSheet)
	if err := g.writeRegister(file, registerSheet, register); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, register model.ContractRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	byStatus := make(map[model.ContractStatus]int)
	totalWorkers := 0
	for _, entry := range register.Entries {
		byStatus[entry.Contract.Status]++
		if entry.Contract.Status == model.ContractStatusActive {
			totalWorkers += entry.Contract.WorkerCount
		}
	}

	set("A1", "Generated")
	set("B1", formatDate(register.GeneratedAt))
	set("A2", "Contracts")
	set("B2", len(register.Entries))
	set("A3", "Active workers")
	set("B3", totalWorkers)

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Count")

	statuses := []model.ContractStatus{
		model.ContractStatusDraft,
		model.ContractStatusActive,
		model.ContractStatusExpired,
		model.ContractStatusCancelled,
		model.ContractStatusRenewed,
	}
	for i, status := range statuses {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(status))
		set(fmt.Sprintf("B%d", row), byStatus[status])
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 16)
	return nil
}

func (g *Generator) writeRegister(file *excelize.File, sheet string, register model.ContractRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Contract No.",
		"Site",
		"Status",
		"Start",
		"End",
		"Workers",
		"Hourly rate",
		"Signed",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, entry := range register.Entries {
		row := i + 2
		contract := entry.Contract
		set(fmt.Sprintf("A%d", row), contract.ContractNumber)
		set(fmt.Sprintf("B%d", row), entry.SiteName)
		set(fmt.Sprintf("C%d", row), string(contract.Status))
		set(fmt.Sprintf("D%d", row), formatDate(contract.DispatchStartDate))
		set(fmt.Sprintf("E%d", row), formatDate(contract.DispatchEndDate))
		set(fmt.Sprintf("F%d", row), contract.WorkerCount)
		set(fmt.Sprintf("G%d", row), formatRate(contract.HourlyRate))
		set(fmt.Sprintf("H%d", row), formatSigned(contract))
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "E", 14)
	_ = file.SetColWidth(sheet, "F", "H", 12)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatRate(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.0f", *value)
}

func formatSigned(contract model.Contract) string {
	if contract.SignedAt == nil {
		return ""
	}
	return formatDate(*contract.SignedAt)
}
