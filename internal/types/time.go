package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the wire format for every timestamp this tool persists:
// second precision, always UTC.
const TimeLayout = "2006-01-02 15:04:05"

// UTCTime is a time.Time that marshals as TimeLayout in UTC.
type UTCTime struct {
	time.Time
}

func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{t.UTC().Truncate(time.Second)}
}

func (t UTCTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.UTC().Format(TimeLayout))), nil
}

func (t *UTCTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t UTCTime) String() string {
	return t.UTC().Format(TimeLayout)
}

// Upstream APIs disagree on timestamp encoding; everything is normalized
// to UTCTime at the parse boundary and never re-parsed downstream.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	TimeLayout,
	"2006-01-02",
}

// ParseTime accepts RFC 3339, Jira's offset format, the wire layout itself
// and epoch-millisecond digit strings.
func ParseTime(s string) (UTCTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UTCTime{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewUTCTime(t), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromEpochMillis(ms), nil
	}
	return UTCTime{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func FromEpochMillis(ms int64) UTCTime {
	return NewUTCTime(time.UnixMilli(ms))
}
