package timeline

import (
	"fmt"
	"time"
)

// Date is a calendar day with no time-of-day component. All timeline
// math happens on Dates in the viewer's timezone, never on raw instants,
// so a prayer stored at 23:30 UTC lands on the right local day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of the instant t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	local := t.In(loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// dayNumber returns the number of days since the civil epoch 1970-01-01.
// Days-from-civil algorithm; exact for all proleptic Gregorian dates, no
// timezone or DST involvement.
func (d Date) dayNumber() int {
	y := d.Year
	m := int(d.Month)
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	var doy int
	if m > 2 {
		doy = (153*(m-3)+2)/5 + d.Day - 1
	} else {
		doy = (153*(m+9)+2)/5 + d.Day - 1
	}
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// AddDays returns the date n calendar days after d (n may be negative).
// Normalized via time.Date, so it is plain calendar arithmetic and never
// drifts across DST transitions.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// AddMonths returns the first day of the month n calendar months after
// d's month.
func (d Date) AddMonths(n int) Date {
	t := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: 1}
}

// FirstOfMonth returns d with the day set to 1.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// DaysBetween returns the signed number of calendar days from b to a
// (positive when a is after b).
func DaysBetween(a, b Date) int {
	return a.dayNumber() - b.dayNumber()
}

func (d Date) Before(other Date) bool { return d.dayNumber() < other.dayNumber() }
func (d Date) After(other Date) bool  { return d.dayNumber() > other.dayNumber() }
func (d Date) Equal(other Date) bool  { return d.dayNumber() == other.dayNumber() }

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// Weekday returns the day of the week for d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// YearMonth formats the date's month as YYYY-MM.
func (d Date) YearMonth() string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// Format renders the date with a time.Format layout.
func (d Date) Format(layout string) string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(layout)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: 1}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LoadZone resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown.
func LoadZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
