package charge

import (
	"fmt"
	"time"

	"cloudeng.io/datetime"
)

// DateFormat is the only textual form a Date is parsed from or formatted to.
const DateFormat = "2006-01-02"

const (
	MinYear = 0
	MaxYear = 9999
)

// Date is a calendar date in the proleptic Gregorian calendar. Values
// returned by ParseDate, NewDate and the arithmetic methods are always
// real dates; the zero Date is not.
type Date struct {
	year  int
	month time.Month
	day   int
}

// ParseDate parses a zero-padded YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDateFormat, s, err)
	}
	return fromTime(t), nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDate returns the date for year, month and day, failing when the
// triple does not name a real day.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, fmt.Errorf("%w: %d", ErrDateOutOfRange, year)
	}
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDateFormat, month)
	}
	if day < 1 || day > int(datetime.DaysInMonth(year, datetime.Month(month))) {
		return Date{}, fmt.Errorf("%w: day %d out of range for %d-%02d", ErrInvalidDateFormat, day, year, month)
	}
	return Date{year: year, month: month, day: day}, nil
}

// Today returns the current date in the local timezone.
func Today() Date {
	return fromTime(time.Now())
}

// CheckRange returns ErrDateOutOfRange when d's year falls outside
// MinYear..MaxYear.
func CheckRange(d Date) error {
	if d.year < MinYear || d.year > MaxYear {
		return fmt.Errorf("%w: %d-%02d-%02d", ErrDateOutOfRange, d.year, d.month, d.day)
	}
	return nil
}

func fromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func (d Date) Year() int { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int { return d.day }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Equal(o Date) bool { return d == o }
func (d Date) Before(o Date) bool { return d.compare(o) < 0 }
func (d Date) After(o Date) bool { return d.compare(o) > 0 }

func (d Date) compare(o Date) int {
	switch {
	case d.year != o.year:
		return d.year - o.year
	case d.month != o.month:
		return int(d.month - o.month)
	default:
		return d.day - o.day
	}
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateFormat)
}

// AddDays adds n calendar days, rolling over month and year boundaries.
func (d Date) AddDays(n int) Date {
	return fromTime(d.Time().AddDate(0, 0, n))
}

// AddYears moves d by n years keeping month and day. Feb 29 becomes
// Feb 28 when the target year is not a leap year.
func (d Date) AddYears(n int) Date {
	year := d.year + n
	day := d.day
	if last := int(datetime.DaysInMonth(year, datetime.Month(d.month))); day > last {
		day = last
	}
	return Date{year: year, month: d.month, day: day}
}

func (d Date) MarshalText() ([]byte, error) {
	if err := CheckRange(d); err != nil {
		return nil, err
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
