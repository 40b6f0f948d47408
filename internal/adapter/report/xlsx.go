// Package report writes audit results to a spreadsheet.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

const sheet = "Auditoria"

var header = []string{"ID", "Titulo", "Estado", "Motivo"}

// WriteAudit stores one row per audited interview in an .xlsx file at path.
func WriteAudit(path string, results []domain.AuditResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
		return err
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Interview.ID, r.Interview.Title, string(r.Verdict.Status), r.Verdict.Reason}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "D", "D", 80)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ReadAudit loads the rows written by WriteAudit, without the header.
func ReadAudit(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}
