package sheets

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"github.com/xuri/excelize/v2"
)

// XLSXSheetName is the worksheet holding the leads
const XLSXSheetName = "Leads"

// WriteXLSX writes leads as a workbook with a single Leads sheet
func WriteXLSX(w io.Writer, leads []models.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range buildValues(leads) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(XLSXSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(XLSXSheetName, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(XLSXSheetName, "C", "C", 60); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// XLSXBytes renders leads to an in-memory workbook
func XLSXBytes(leads []models.Lead) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, leads); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveXLSX writes leads to the workbook at path, replacing it
func SaveXLSX(path string, leads []models.Lead) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteXLSX(file, leads); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadXLSX reads leads back from a workbook written by WriteXLSX
func ReadXLSX(r io.Reader) ([]models.Lead, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(XLSXSheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", XLSXSheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header", XLSXSheetName)
	}

	leads := make([]models.Lead, 0, len(rows)-1)
	for i, row := range rows[1:] {
		// trailing empty cells are not returned
		for len(row) < len(Header) {
			row = append(row, "")
		}

		rating, err := strconv.ParseFloat(row[1], 64)
		if err != nil && row[1] != "" {
			return nil, fmt.Errorf("invalid rating on row %d: %w", i+2, err)
		}
		leads = append(leads, models.Lead{
			Name:    row[0],
			Rating:  rating,
			MapLink: row[2],
		})
	}
	return leads, nil
}
