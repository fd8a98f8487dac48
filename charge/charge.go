// Package charge computes the next billing date of a recurring charge.
package charge

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrUnknownPeriod     = errors.New("unknown period")

	// ErrDateOutOfRange is also an ErrInvalidDateFormat: the date has no
	// four-digit YYYY-MM-DD form.
	ErrDateOutOfRange = fmt.Errorf("%w: year outside 0000-9999", ErrInvalidDateFormat)
)

// CalculateNextCharge returns the next charge date, as YYYY-MM-DD, for a
// charge starting on startDate and recurring every period.
func CalculateNextCharge(startDate, period string) (string, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return "", err
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return "", err
	}
	next := Next(start, p)
	if err := CheckRange(next); err != nil {
		return "", fmt.Errorf("next %v charge after %v: %w", p, start, err)
	}
	return next.String(), nil
}

// Next returns the date one period after start.
func Next(start Date, p Period) Date {
	return p.Next(start)
}

// NextAfter applies p to start until the result falls strictly after now.
// At least one period is always applied.
func NextAfter(start Date, p Period, now Date) Date {
	next := p.Next(start)
	for !next.After(now) {
		next = p.Next(next)
	}
	return next
}

// Upcoming returns the first charge date on or after today for a
// subscription starting on start. A start date that has not passed yet
// is itself the first charge.
func Upcoming(start Date, p Period, today Date) Date {
	if !start.Before(today) {
		return start
	}
	return NextAfter(start, p, today.AddDays(-1))
}
