package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"shoppulse/internal/config"
	"shoppulse/internal/services"
)

// ExcelWriter renders a snapshot as a multi-sheet Excel workbook
type ExcelWriter struct {
	cfg config.ExportConfig
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(cfg config.ExportConfig) *ExcelWriter {
	return &ExcelWriter{cfg: cfg}
}

// WriteSnapshot writes one sheet per summary table and returns the
// full path of the workbook.
func (w *ExcelWriter) WriteSnapshot(snap *services.DashboardSnapshot, filePath string) (string, error) {
	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(w.cfg.OutputDir, fullPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, table := range SnapshotTables(snap) {
		sheet := table.Name
		if i == 0 {
			// Rename the default sheet instead of leaving it empty
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		header := make([]interface{}, len(table.Headers))
		for j, h := range table.Headers {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return "", fmt.Errorf("failed to write headers on %s: %w", sheet, err)
		}

		endCol, err := excelize.ColumnNumberToName(len(table.Headers))
		if err == nil {
			f.SetCellStyle(sheet, "A1", endCol+"1", headerStyle)
		}

		for r, row := range table.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return "", fmt.Errorf("failed to write row %d on %s: %w", r, sheet, err)
			}
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fullPath, nil
}

// SnapshotExporter writes snapshots in either supported format
type SnapshotExporter struct {
	csv   *CSVWriter
	excel *ExcelWriter
}

// NewSnapshotExporter creates an exporter over the configured output dir
func NewSnapshotExporter(cfg config.ExportConfig) *SnapshotExporter {
	return &SnapshotExporter{
		csv:   NewCSVWriter(cfg),
		excel: NewExcelWriter(cfg),
	}
}

// ExportCSV writes one CSV file per summary table into a directory
// named after the snapshot range and returns the directory path.
func (e *SnapshotExporter) ExportCSV(snap *services.DashboardSnapshot) (string, error) {
	dir := snapshotBaseName(snap)
	for _, table := range SnapshotTables(snap) {
		name := filepath.Join(dir, slugify(table.Name)+".csv")
		if err := e.csv.WriteSimpleCSV(name, table.Headers, table.Rows); err != nil {
			return "", fmt.Errorf("export %s: %w", table.Name, err)
		}
	}
	return filepath.Join(e.csv.cfg.OutputDir, dir), nil
}

// ExportExcel writes the snapshot workbook and returns its path
func (e *SnapshotExporter) ExportExcel(snap *services.DashboardSnapshot) (string, error) {
	return e.excel.WriteSnapshot(snap, snapshotBaseName(snap)+".xlsx")
}

func snapshotBaseName(snap *services.DashboardSnapshot) string {
	return fmt.Sprintf("dashboard_%s_%s",
		snap.From.Format("2006-01-02"), snap.To.Format("2006-01-02"))
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '_')
		}
	}
	return string(out)
}
