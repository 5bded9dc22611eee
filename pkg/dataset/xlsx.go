package dataset

import (
	"fmt"
	"io"

	"chips-trial/pkg/models"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads transactions from the first sheet (or sheet, when set) of a workbook.
func ReadXLSX(r io.Reader, sheet string) ([]models.TransactionRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

// LoadXLSX opens path and reads it with ReadXLSX.
func LoadXLSX(path, sheet string) ([]models.TransactionRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) ([]models.TransactionRecord, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		idx  columnIndex
		out  []models.TransactionRecord
		line int
	)
	for rows.Next() {
		line++
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %s line %d: %w", sheet, line, err)
		}
		if idx == nil {
			if idx, err = newColumnIndex(cells); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sheet, err)
			}
			continue
		}
		if len(cells) == 0 {
			continue
		}
		rec, err := idx.parse(cells, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Error()
}
