package types

import "time"

// TimestampLayout is the persisted timestamp form: UTC, second precision,
// fixed width so that string order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// NormalizeTime converts t to UTC and drops sub-second precision.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CeilTime converts t to UTC and rounds a sub-second remainder up to the next
// whole second. For any stored second-precision s, s < t holds exactly when
// s < CeilTime(t).
func CeilTime(t time.Time) time.Time {
	t = t.UTC()
	if trunc := t.Truncate(time.Second); !trunc.Equal(t) {
		return trunc.Add(time.Second)
	}
	return t
}

// FormatUpperBound renders an exclusive upper query bound for comparison
// against stored timestamps.
func FormatUpperBound(t time.Time) string {
	return CeilTime(t).Format(TimestampLayout)
}

// FormatTimestamp renders t in TimestampLayout. As an exclusive lower bound
// it needs no rounding: a stored s is greater than t exactly when it is
// greater than t truncated.
func FormatTimestamp(t time.Time) string {
	return NormalizeTime(t).Format(TimestampLayout)
}

// ParseTimestamp parses a value produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// TimeRange bounds a read query. Both bounds are exclusive: an interval is
// included when Start < start < End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DayWindow returns the range covering the whole UTC day containing now.
// The lower bound sits one second before midnight so that an interval
// starting exactly at midnight is included despite the exclusive bounds.
func DayWindow(now time.Time) TimeRange {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return TimeRange{
		Start: midnight.Add(-time.Second),
		End:   midnight.Add(24 * time.Hour),
	}
}

// ResolveRange fills missing bounds from the UTC day containing now.
func ResolveRange(start, end *time.Time, now time.Time) TimeRange {
	r := DayWindow(now)
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	return r
}

// Validate rejects empty or inverted ranges.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return Invalid("range start and end are required")
	}
	if !r.Start.Before(r.End) {
		return Invalid("range start must precede range end")
	}
	return nil
}
