package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const qviCSV = `LYLTY_CARD_NBR,DATE,STORE_NBR,TXN_ID,PROD_NBR,PROD_NAME,PROD_QTY,TOT_SALES,PACK_SIZE,BRAND
1000,2018-10-17,1,1,5,Natural Chip Compny SeaSalt175g,2,6.0,175,NATURAL
1307,2019-05-14,1,348,66,CCs Nacho Cheese 175g,3,6.3,175,CCS
,2019-05-20,1,349,61,Smiths Crinkle Cut Chips Chicken 170g,2,2.9,170,SMITHS
`

func TestReadCSV(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(qviCSV))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, 1, recs[0].StoreID)
	assert.Equal(t, 1000, recs[0].LoyaltyCardID)
	assert.Equal(t, time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, 2, recs[0].ProductQuantity)
	assert.InDelta(t, 6.0, recs[0].TotalSales, 1e-12)
	assert.Equal(t, 201905, int(recs[1].Month()))
	assert.Zero(t, recs[2].LoyaltyCardID, "blank card is unknown")
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("STORE_NBR,DATE,PROD_QTY,TOT_SALES\n1,2018-10-17,2,6.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColCard)
}

func TestReadCSV_RejectsNegative(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("STORE_NBR,LYLTY_CARD_NBR,DATE,PROD_QTY,TOT_SALES\n1,1000,2018-10-17,-2,6.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCSV_BadDate(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("STORE_NBR,LYLTY_CARD_NBR,DATE,PROD_QTY,TOT_SALES\n1,1000,yesterday,2,6.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColDate)
}

func TestParseDate_ExcelSerial(t *testing.T) {
	// 43390 is 2018-10-17 in the 1900 date system.
	got, err := parseDate("43390")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC), got)
}

func TestAtoi(t *testing.T) {
	n, err := atoi("77.0")
	require.NoError(t, err)
	assert.Equal(t, 77, n)
	_, err = atoi("77.5")
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := "in"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	rows := [][]any{
		{"DATE", "STORE_NBR", "LYLTY_CARD_NBR", "TXN_ID", "PROD_NBR", "PROD_NAME", "PROD_QTY", "TOT_SALES"},
		{43390, 1, 1000, 1, 5, "Natural Chip Compny SeaSalt175g", 2, 6.0},
		{43599, 1, 1307, 348, 66, "CCs Nacho Cheese 175g", 3, 6.3},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	recs, err := ReadXLSX(&buf, sheet)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, 1307, recs[1].LoyaltyCardID)
	assert.Equal(t, 3, recs[1].ProductQuantity)
	assert.InDelta(t, 6.3, recs[1].TotalSales, 1e-12)
}

func TestReadXLSX_UnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	_, err := ReadXLSX(&buf, "missing")
	assert.Error(t, err)
}
