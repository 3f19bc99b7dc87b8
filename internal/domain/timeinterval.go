package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// MinutesPerDay is the exclusive upper bound for a start time and the
// inclusive upper bound for an end time.
const MinutesPerDay = 24 * 60

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidRange     = errors.New("end time must be after start time")
)

// CalendarDate is a civil date without a time zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Time returns midnight UTC of the date.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// StartOfWeek returns the Monday on or before d.
func (d CalendarDate) StartOfWeek() CalendarDate {
	offset := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	return d.AddDays(-offset)
}

func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }
func (d CalendarDate) After(o CalendarDate) bool  { return d.Compare(o) > 0 }

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDate) UnmarshalText(b []byte) error {
	parsed, err := ParseCalendarDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d CalendarDate) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *CalendarDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = CalendarDate{}
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidDate, src)
	}
}

func (d *CalendarDate) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return d.UnmarshalText([]byte(s))
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From CalendarDate
	To   CalendarDate
}

func (r DateRange) Valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.To.Before(r.From)
}

func (r DateRange) Contains(d CalendarDate) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns the number of dates in the range.
func (r DateRange) Days() int {
	return int(r.To.Time().Sub(r.From.Time())/(24*time.Hour)) + 1
}

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS[.ffffff]"; seconds are
// truncated. "24:00" is accepted so that a window can end at midnight.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if len(parts) == 3 && h == 24 && strings.Trim(parts[2], "0.") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// AddMinutes returns t shifted by n minutes. The result may fall past
// midnight, in which case Valid reports false for it as an end time.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	return t + TimeOfDay(n)
}

func (t TimeOfDay) validStart() bool { return t >= 0 && t < MinutesPerDay }
func (t TimeOfDay) validEnd() bool   { return t > 0 && t <= MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case int64:
		// microseconds since midnight
		*t = TimeOfDay(v / int64(time.Minute/time.Microsecond))
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeOfDay, src)
	}
}

// OverlapRule decides whether intervals that merely touch conflict.
type OverlapRule string

const (
	// OverlapStrict is half-open: [09:00,10:00) and [10:00,11:00) do not overlap.
	OverlapStrict OverlapRule = "strict"
	// OverlapInclusive also treats touching boundaries as a conflict.
	OverlapInclusive OverlapRule = "inclusive"
)

func ParseOverlapRule(s string) (OverlapRule, error) {
	switch OverlapRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverlapStrict:
		return OverlapStrict, nil
	case OverlapInclusive:
		return OverlapInclusive, nil
	default:
		return "", fmt.Errorf("unknown overlap rule %q", s)
	}
}

// TimeInterval is a time range on a single date. Start < End always holds
// for intervals built through NewTimeInterval.
type TimeInterval struct {
	Date  CalendarDate
	Start TimeOfDay
	End   TimeOfDay
}

func NewTimeInterval(date CalendarDate, start, end TimeOfDay) (TimeInterval, error) {
	i := TimeInterval{Date: date, Start: start, End: end}
	if date.IsZero() {
		return TimeInterval{}, ErrInvalidDate
	}
	if !start.validStart() || !end.validEnd() {
		return TimeInterval{}, ErrInvalidTimeOfDay
	}
	if end <= start {
		return TimeInterval{}, ErrInvalidRange
	}
	return i, nil
}

func (i TimeInterval) Valid() bool {
	return !i.Date.IsZero() && i.Start.validStart() && i.End.validEnd() && i.Start < i.End
}

func (i TimeInterval) Minutes() int {
	return int(i.End - i.Start)
}

// Overlaps is symmetric. Intervals on different dates never overlap.
func (i TimeInterval) Overlaps(o TimeInterval, rule OverlapRule) bool {
	if i.Date != o.Date {
		return false
	}
	if rule == OverlapInclusive {
		return i.Start <= o.End && o.Start <= i.End
	}
	return i.Start < o.End && o.Start < i.End
}

// Covers reports whether o lies entirely inside i.
func (i TimeInterval) Covers(o TimeInterval) bool {
	return i.Date == o.Date && i.Start <= o.Start && i.End >= o.End
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("%s %s-%s", i.Date, i.Start, i.End)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
