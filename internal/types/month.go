package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month identifies one calendar-month cache bucket.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// Key renders the bucket id, e.g. "03-2025".
func (m Month) Key() string {
	return fmt.Sprintf("%02d-%04d", int(m.Month), m.Year)
}

func (m Month) String() string {
	return m.Key()
}

// ParseMonthKey parses a "MM-YYYY" bucket id.
func ParseMonthKey(s string) (Month, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("invalid month key %q", s)
	}
	mm, err := strconv.Atoi(parts[0])
	if err != nil || mm < 1 || mm > 12 {
		return Month{}, fmt.Errorf("invalid month key %q", s)
	}
	yyyy, err := strconv.Atoi(parts[1])
	if err != nil || yyyy < 1 {
		return Month{}, fmt.Errorf("invalid month key %q", s)
	}
	return Month{Year: yyyy, Month: time.Month(mm)}, nil
}

// Start is the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month (exclusive bound).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(m.Start()) && u.Before(m.End())
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m Month) prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// MonthsBack returns the n months ending at ref's month, oldest first.
func MonthsBack(ref time.Time, n int) []Month {
	if n < 1 {
		n = 1
	}
	months := make([]Month, n)
	cur := MonthOf(ref)
	for i := n - 1; i >= 0; i-- {
		months[i] = cur
		cur = cur.prev()
	}
	return months
}
