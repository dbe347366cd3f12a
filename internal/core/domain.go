package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	ETF     Type = "ETF"
	Stock   Type = "Stock"
	Bitcoin Type = "Bitcoin"
	Other   Type = "Other"
)

// DateLayout is the on-disk representation of a record date.
const DateLayout = "2006-01-02"

// MinYear is the lowest year the period filter accepts.
const MinYear = 2000

type (
	// Type is the investment category chosen when a record is created.
	Type string

	Date struct {
		time.Time
	}

	// Record is one stored investment. Only Amount may change after creation.
	Record struct {
		ID     int64
		Date   Date
		Type   Type
		Amount float64
	}

	// Period selects the records of one calendar month.
	Period struct {
		Year  int
		Month int // 1-12
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid investment type")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidDate   = errors.New("invalid date")
)

// ValidationError reports user input that was rejected before touching the store.
type ValidationError struct {
	Field string
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Types returns the selectable investment types in display order.
func Types() []Type {
	return []Type{ETF, Stock, Bitcoin, Other}
}

func (t Type) Valid() bool {
	switch t {
	case ETF, Stock, Bitcoin, Other:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	return string(t)
}

// ParseType matches s against the known types, ignoring case and surrounding spaces.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Input: s, Err: ErrInvalidType}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Period returns the month the date falls in.
func (d Date) Period() Period {
	return Period{Year: d.Year(), Month: int(d.Month())}
}

func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "type", Input: string(r.Type), Err: ErrInvalidType}
	}
	if r.Amount < 0 || math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return &ValidationError{Field: "amount", Input: fmt.Sprint(r.Amount), Err: ErrInvalidAmount}
	}
	return nil
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: int(now.Month())}
}

// Validate checks the period against the selector bounds: year in
// [MinYear, now.Year()] and month in [1, 12].
func (p Period) Validate(now time.Time) error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPeriod, p.Month)
	}
	if p.Year < MinYear || p.Year > now.Year() {
		return fmt.Errorf("%w: year %d out of range %d-%d", ErrInvalidPeriod, p.Year, MinYear, now.Year())
	}
	return nil
}

// Clamp pulls each component into its selector range, the way a spin box would.
func (p Period) Clamp(now time.Time) Period {
	p.Year = clamp(p.Year, MinYear, now.Year())
	p.Month = clamp(p.Month, 1, 12)
	return p
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && int(d.Month()) == p.Month
}

// YearText is the four digit year used by the store filter.
func (p Period) YearText() string {
	return fmt.Sprintf("%04d", p.Year)
}

// MonthText is the zero padded month used by the store filter.
func (p Period) MonthText() string {
	return fmt.Sprintf("%02d", p.Month)
}

func (p Period) String() string {
	return p.YearText() + "-" + p.MonthText()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
