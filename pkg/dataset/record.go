// Package dataset reads cleaned transaction tables from CSV and XLSX files.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chips-trial/pkg/models"

	"github.com/xuri/excelize/v2"
)

// Column headers of the cleaned transaction table.
const (
	ColStore    = "STORE_NBR"
	ColCard     = "LYLTY_CARD_NBR"
	ColDate     = "DATE"
	ColQuantity = "PROD_QTY"
	ColSales    = "TOT_SALES"
)

var requiredColumns = []string{ColStore, ColCard, ColDate, ColQuantity, ColSales}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "02/01/2006"}

// columnIndex locates the required columns in a header row.
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
	}
	return idx, nil
}

func (c columnIndex) cell(cells []string, col string) string {
	i := c[col]
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// parse turns one data row into a TransactionRecord. line is 1-based and
// counts the header.
func (c columnIndex) parse(cells []string, line int) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	var err error
	fail := func(col string, err error) (models.TransactionRecord, error) {
		return models.TransactionRecord{}, fmt.Errorf("line %d column %s: %w", line, col, err)
	}

	if rec.StoreID, err = atoi(c.cell(cells, ColStore)); err != nil {
		return fail(ColStore, err)
	}
	if raw := c.cell(cells, ColCard); raw != "" {
		if rec.LoyaltyCardID, err = atoi(raw); err != nil {
			return fail(ColCard, err)
		}
	}
	if rec.Date, err = parseDate(c.cell(cells, ColDate)); err != nil {
		return fail(ColDate, err)
	}
	if rec.ProductQuantity, err = atoi(c.cell(cells, ColQuantity)); err != nil {
		return fail(ColQuantity, err)
	}
	if rec.TotalSales, err = strconv.ParseFloat(c.cell(cells, ColSales), 64); err != nil {
		return fail(ColSales, err)
	}
	if rec.ProductQuantity < 0 || rec.TotalSales < 0 {
		return fail(ColQuantity+"/"+ColSales, fmt.Errorf("negative value"))
	}
	return rec, nil
}

// atoi also accepts integral floats ("77.0"), as spreadsheets often store them.
func atoi(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

// parseDate accepts ISO dates and Excel serial day numbers (1899-12-30 epoch).
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
