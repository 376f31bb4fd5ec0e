package shared

import (
	"fmt"
	"time"
)

// DateTimeInput carries the split date and time fields of a transaction
// request. Keeping the fields separate lets Resolve reject impossible
// calendar combinations instead of silently normalising them.
type DateTimeInput struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// FromTime splits t into its input fields, used to seed edit requests.
func FromTime(t time.Time) DateTimeInput {
	return DateTimeInput{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Resolve builds the UTC timestamp described by the input. A combination
// that does not exist on the calendar (day 31 in a 30-day month, month 13)
// or resolves after now yields ErrInvalidDate; time.Date's overflow
// normalisation is treated as rejection, never as a valid result.
func (d DateTimeInput) Resolve(now time.Time) (time.Time, error) {
	if d.Month < 1 || d.Month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, d.Month)
	}
	if d.Day < 1 || d.Day > 31 {
		return time.Time{}, fmt.Errorf("%w: day %d out of range", ErrInvalidDate, d.Day)
	}
	if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 || d.Second < 0 || d.Second > 59 {
		return time.Time{}, fmt.Errorf("%w: time %02d:%02d:%02d out of range", ErrInvalidDate, d.Hour, d.Minute, d.Second)
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
	if t.Year() != d.Year || t.Month() != time.Month(d.Month) || t.Day() != d.Day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidDate, d.Year, d.Month, d.Day)
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, t.Format(time.DateTime))
	}
	return t, nil
}
