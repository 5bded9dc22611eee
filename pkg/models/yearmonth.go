package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth is a calendar month encoded as YYYYMM (201902 = February 2019).
type YearMonth int

// NewYearMonth builds a YearMonth from its parts.
func NewYearMonth(year int, month time.Month) YearMonth {
	return YearMonth(year*100 + int(month))
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return NewYearMonth(t.Year(), t.Month())
}

// ParseYearMonth accepts "YYYYMM", "YYYY-MM" or "MM/YYYY".
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	var year, month int
	var err error
	switch {
	case len(s) == 6 && !strings.ContainsAny(s, "-/"):
		year, err = strconv.Atoi(s[:4])
		if err == nil {
			month, err = strconv.Atoi(s[4:])
		}
	case len(s) == 7 && s[4] == '-':
		year, err = strconv.Atoi(s[:4])
		if err == nil {
			month, err = strconv.Atoi(s[5:])
		}
	case len(s) == 7 && s[2] == '/':
		month, err = strconv.Atoi(s[:2])
		if err == nil {
			year, err = strconv.Atoi(s[3:])
		}
	default:
		return 0, fmt.Errorf("expected YYYYMM, YYYY-MM or MM/YYYY, got %q", s)
	}
	if err != nil {
		return 0, fmt.Errorf("year-month %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month in %q", s)
	}
	return NewYearMonth(year, time.Month(month)), nil
}

func (ym YearMonth) Year() int         { return int(ym) / 100 }
func (ym YearMonth) Month() time.Month { return time.Month(int(ym) % 100) }

// Time returns the first day of the month in UTC.
func (ym YearMonth) Time() time.Time {
	return time.Date(ym.Year(), ym.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	return YearMonthOf(ym.Time().AddDate(0, 1, 0))
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year(), int(ym.Month()))
}

// MonthsBetweenInclusive lists every month from start to end.
func MonthsBetweenInclusive(start, end YearMonth) []YearMonth {
	var out []YearMonth
	for cur := start; cur <= end; cur = cur.Next() {
		out = append(out, cur)
	}
	return out
}
