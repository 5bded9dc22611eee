package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"chips-trial/pkg/models"
)

// ReadCSV reads transactions from a CSV stream whose first row is the header.
func ReadCSV(r io.Reader) ([]models.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []models.TransactionRecord
	for line := 2; ; line++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := idx.parse(cells, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) ([]models.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
