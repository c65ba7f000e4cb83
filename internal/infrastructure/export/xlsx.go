// Package export renders catalog pages as spreadsheet downloads.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/docuflow/review-console/internal/core/domain"
)

const sheetName = "Documents"

var columns = []string{
	"Document ID", "Filename", "Document Type", "OCR Variant",
	"Status", "Created At", "File Size (bytes)", "Requires Review", "Review Completed At",
}

// WriteCatalogXLSX writes the given catalog rows as an xlsx workbook.
// Optimistic placeholder rows are skipped since they have no backend
// identity yet.
func WriteCatalogXLSX(w io.Writer, rows []domain.ListRow) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	rowIdx := 2
	for _, row := range rows {
		if row.IsTemp {
			continue
		}
		reviewedAt := ""
		if row.ReviewCompletedAt != nil {
			reviewedAt = row.ReviewCompletedAt.UTC().Format("2006-01-02 15:04:05")
		}
		values := []any{
			row.ID,
			row.Filename,
			row.DocumentType,
			string(row.OCRVariant),
			string(row.Status),
			row.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			row.FileSizeBytes,
			row.RequiresHumanReview,
			reviewedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		rowIdx++
	}

	if err := f.SetColWidth(sheetName, "A", "I", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
