package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Spend Summary"

// ExcelExporter writes a spend summary to an .xlsx workbook.
type ExcelExporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExcelExporter creates an exporter writing into outputDir.
func NewExcelExporter(outputDir string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{outputDir: outputDir, logger: logger}
}

// Export writes the summary and returns the generated file path.
func (e *ExcelExporter) Export(summary Summary, reportTitle string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"Report", reportTitle},
		{"Currency", summary.CurrencyCode},
		{"Line items", summary.LineItemCount},
		{"Itemized entries", summary.ItemizedCount},
		{"Grand total", summary.GrandTotal},
		{},
		{"Expense type", "Count", "Total"},
	}
	for _, tt := range summary.ByType {
		rows = append(rows, []interface{}{tt.ExpenseType, tt.Count, tt.Total})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("spend_summary_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Spend summary exported", zap.String("path", path))
	return path, nil
}
