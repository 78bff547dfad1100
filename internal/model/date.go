package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout         = time.DateOnly
	DayMonthYearLayout = "02/01/2006"
)

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshal date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DayMonthYear is a calendar date serialized as DD/MM/YYYY.
type DayMonthYear struct {
	time.Time
}

func ParseDayMonthYear(s string) (DayMonthYear, error) {
	t, err := time.Parse(DayMonthYearLayout, strings.TrimSpace(s))
	if err != nil {
		return DayMonthYear{}, fmt.Errorf("parse date %q: expected DD/MM/YYYY", s)
	}
	return DayMonthYear{t}, nil
}

func (d DayMonthYear) String() string {
	return d.Format(DayMonthYearLayout)
}

func (d DayMonthYear) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DayMonthYear) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshal date: %w", err)
	}
	parsed, err := ParseDayMonthYear(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
