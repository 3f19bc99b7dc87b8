package domain

import (
	"errors"
	"testing"
	"time"
)

func mustInterval(t *testing.T, date, start, end string) TimeInterval {
	t.Helper()
	d, err := ParseCalendarDate(date)
	if err != nil {
		t.Fatalf("ParseCalendarDate(%q) error: %v", date, err)
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error: %v", start, err)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error: %v", end, err)
	}
	i, err := NewTimeInterval(d, s, e)
	if err != nil {
		t.Fatalf("NewTimeInterval error: %v", err)
	}
	return i
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "9:05", want: 545},
		{in: "23:59", want: 1439},
		{in: "24:00", want: MinutesPerDay},
		{in: "10:30:00", want: 630},
		{in: "10:30:00.000000", want: 630},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "10:7", wantErr: true},
		{in: "10", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeOfDay) {
					t.Fatalf("error = %v, want %v", err, ErrInvalidTimeOfDay)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseTimeOfDay = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	if err := tod.Scan("11:45:00"); err != nil || tod.String() != "11:45" {
		t.Fatalf("Scan(string) = %v, %v", tod, err)
	}
	if err := tod.Scan([]byte("08:15:00")); err != nil || tod.String() != "08:15" {
		t.Fatalf("Scan([]byte) = %v, %v", tod, err)
	}
	if err := tod.Scan(time.Date(0, 1, 1, 13, 5, 0, 0, time.UTC)); err != nil || tod.String() != "13:05" {
		t.Fatalf("Scan(time.Time) = %v, %v", tod, err)
	}
	if err := tod.Scan(int64(90 * time.Minute / time.Microsecond)); err != nil || tod.String() != "01:30" {
		t.Fatalf("Scan(int64) = %v, %v", tod, err)
	}
	v, err := NewTimeOfDay(7, 5).Value()
	if err != nil || v != "07:05:00" {
		t.Fatalf("Value = %v, %v", v, err)
	}
}

func TestCalendarDate(t *testing.T) {
	d, err := ParseCalendarDate("2024-06-01")
	if err != nil {
		t.Fatalf("ParseCalendarDate error: %v", err)
	}
	if d.String() != "2024-06-01" {
		t.Fatalf("String = %q", d.String())
	}
	if got := d.StartOfWeek().String(); got != "2024-05-27" {
		t.Fatalf("StartOfWeek = %q, want 2024-05-27", got)
	}
	sunday := NewCalendarDate(2024, time.June, 2)
	if got := sunday.StartOfWeek().String(); got != "2024-05-27" {
		t.Fatalf("StartOfWeek(sunday) = %q, want 2024-05-27", got)
	}
	if got := d.AddDays(30).String(); got != "2024-07-01" {
		t.Fatalf("AddDays = %q", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d.AddDays(1)) {
		t.Fatalf("ordering broken")
	}

	var scanned CalendarDate
	if err := scanned.Scan(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil || scanned != d {
		t.Fatalf("Scan(time.Time) = %v, %v", scanned, err)
	}
	if err := scanned.Scan("2024-06-01T00:00:00Z"); err != nil || scanned != d {
		t.Fatalf("Scan(string) = %v, %v", scanned, err)
	}
	if _, err := ParseCalendarDate("01/06/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidDate)
	}

	r := DateRange{From: d, To: d.AddDays(6)}
	if !r.Valid() || r.Days() != 7 || !r.Contains(d.AddDays(3)) || r.Contains(d.AddDays(7)) {
		t.Fatalf("unexpected range behaviour: %+v", r)
	}
}

func TestNewTimeInterval_Validation(t *testing.T) {
	d := NewCalendarDate(2024, time.June, 1)
	if _, err := NewTimeInterval(d, 600, 600); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("equal bounds error = %v, want %v", err, ErrInvalidRange)
	}
	if _, err := NewTimeInterval(d, 600, 540); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("reversed bounds error = %v, want %v", err, ErrInvalidRange)
	}
	if _, err := NewTimeInterval(CalendarDate{}, 540, 600); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("zero date error = %v, want %v", err, ErrInvalidDate)
	}
	if _, err := NewTimeInterval(d, 1380, MinutesPerDay+30); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("past midnight error = %v, want %v", err, ErrInvalidTimeOfDay)
	}
	if _, err := NewTimeInterval(d, 1380, MinutesPerDay); err != nil {
		t.Fatalf("window ending at midnight: %v", err)
	}
}

func TestTimeInterval_Overlaps(t *testing.T) {
	base := mustInterval(t, "2024-06-01", "09:00", "10:00")

	tests := []struct {
		name      string
		other     TimeInterval
		strict    bool
		inclusive bool
	}{
		{name: "identical", other: base, strict: true, inclusive: true},
		{name: "same start", other: mustInterval(t, "2024-06-01", "09:00", "09:15"), strict: true, inclusive: true},
		{name: "inside", other: mustInterval(t, "2024-06-01", "09:15", "09:45"), strict: true, inclusive: true},
		{name: "straddles end", other: mustInterval(t, "2024-06-01", "09:30", "10:30"), strict: true, inclusive: true},
		{name: "back to back after", other: mustInterval(t, "2024-06-01", "10:00", "11:00"), strict: false, inclusive: true},
		{name: "back to back before", other: mustInterval(t, "2024-06-01", "08:00", "09:00"), strict: false, inclusive: true},
		{name: "disjoint", other: mustInterval(t, "2024-06-01", "11:00", "12:00"), strict: false, inclusive: false},
		{name: "other date", other: mustInterval(t, "2024-06-02", "09:00", "10:00"), strict: false, inclusive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rc := range []struct {
				rule OverlapRule
				want bool
			}{{OverlapStrict, tt.strict}, {OverlapInclusive, tt.inclusive}} {
				if got := base.Overlaps(tt.other, rc.rule); got != rc.want {
					t.Fatalf("%s: Overlaps = %v, want %v", rc.rule, got, rc.want)
				}
				if base.Overlaps(tt.other, rc.rule) != tt.other.Overlaps(base, rc.rule) {
					t.Fatalf("%s: overlap is not symmetric", rc.rule)
				}
			}
		})
	}
}

func TestTimeInterval_OverlapsIsSymmetric(t *testing.T) {
	d := NewCalendarDate(2024, time.June, 1)
	var intervals []TimeInterval
	for start := TimeOfDay(480); start < 720; start += 15 {
		for length := 15; length <= 90; length += 15 {
			i, err := NewTimeInterval(d, start, start.AddMinutes(length))
			if err != nil {
				t.Fatalf("NewTimeInterval error: %v", err)
			}
			intervals = append(intervals, i)
		}
	}
	for _, a := range intervals {
		for _, b := range intervals {
			for _, rule := range []OverlapRule{OverlapStrict, OverlapInclusive} {
				if a.Overlaps(b, rule) != b.Overlaps(a, rule) {
					t.Fatalf("%s: overlaps(%s, %s) not symmetric", rule, a, b)
				}
			}
		}
	}
}

func TestTimeInterval_Covers(t *testing.T) {
	window := mustInterval(t, "2024-06-01", "09:00", "12:00")
	if !window.Covers(mustInterval(t, "2024-06-01", "09:00", "09:30")) {
		t.Fatalf("expected window to cover its first slot")
	}
	if !window.Covers(mustInterval(t, "2024-06-01", "11:30", "12:00")) {
		t.Fatalf("expected window to cover its last slot")
	}
	if window.Covers(mustInterval(t, "2024-06-01", "11:45", "12:15")) {
		t.Fatalf("slot past window end must not be covered")
	}
	if window.Covers(mustInterval(t, "2024-06-02", "09:00", "09:30")) {
		t.Fatalf("slot on another date must not be covered")
	}
}

func TestParseOverlapRule(t *testing.T) {
	if r, err := ParseOverlapRule(""); err != nil || r != OverlapStrict {
		t.Fatalf("default rule = %v, %v", r, err)
	}
	if r, err := ParseOverlapRule(" Inclusive "); err != nil || r != OverlapInclusive {
		t.Fatalf("inclusive rule = %v, %v", r, err)
	}
	if _, err := ParseOverlapRule("loose"); err == nil {
		t.Fatalf("expected error for unknown rule")
	}
}
