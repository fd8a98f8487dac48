package charge

import "fmt"

// Period is how often a charge recurs.
type Period int

const (
	Weekly Period = iota + 1
	Monthly
	Yearly
)

const (
	weekDays  = 7
	monthDays = 30
)

var periodLabels = map[Period]string{
	Weekly:  "weekly",
	Monthly: "monthly",
	Yearly:  "yearly",
}

// ParsePeriod accepts exactly "weekly", "monthly" or "yearly".
func ParsePeriod(s string) (Period, error) {
	for p, label := range periodLabels {
		if label == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

func (p Period) String() string {
	if label, ok := periodLabels[p]; ok {
		return label
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Valid reports whether p is one of the declared periods.
func (p Period) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

// Next returns the charge date one period after d.
// Monthly is a fixed 30-day offset, not a calendar month.
func (p Period) Next(d Date) Date {
	switch p {
	case Weekly:
		return d.AddDays(weekDays)
	case Monthly:
		return d.AddDays(monthDays)
	case Yearly:
		return d.AddYears(1)
	}
	panic(fmt.Sprintf("charge: next date for invalid %v", p))
}

func (p Period) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPeriod, p)
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
