package interval

import (
	"fmt"
	"time"

	apperrors "github.com/vantageav/ledrental-backend/pkg/errors"
)

// DateLayout is the wire format for business dates.
const DateLayout = "2006-01-02"

// Range is an inclusive date interval. Both endpoints are rental days: an
// order running 10th..12th occupies inventory on the 10th, 11th and 12th.
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a validated Range. Endpoints are normalized to UTC midnight so
// comparisons are pure date comparisons.
func New(start, end time.Time) (Range, error) {
	r := Range{Start: Normalize(start), End: Normalize(end)}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Parse builds a Range from two DateLayout strings.
func Parse(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, apperrors.New(apperrors.CodeInvalidInterval, fmt.Sprintf("invalid start date %q", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, apperrors.New(apperrors.CodeInvalidInterval, fmt.Sprintf("invalid end date %q", end))
	}
	return New(s, e)
}

// Normalize truncates a timestamp to its UTC date.
func Normalize(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate rejects zero endpoints and end-before-start intervals. A one-day
// rental with start == end is legal.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return apperrors.New(apperrors.CodeInvalidInterval, "start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return apperrors.New(apperrors.CodeInvalidInterval, "end date precedes start date").
			WithDetails(map[string]string{
				"start_date": r.Start.Format(DateLayout),
				"end_date":   r.End.Format(DateLayout),
			})
	}
	return nil
}

// Overlaps reports whether the two inclusive intervals share at least one day.
// Touching endpoints conflict: an order ending on the 12th overlaps one
// starting on the 12th.
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether the date falls inside the interval, inclusive.
func (r Range) Contains(t time.Time) bool {
	d := Normalize(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days is the inclusive length of the interval in days, at least 1.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r Range) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
