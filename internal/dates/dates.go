// Package dates normalizes front matter dates to the YYYY/MM/DD display form.
//
// Normalization is purely textual and never fails. Parse is the validating
// counterpart used for ordering posts.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the canonical display and comparison form.
const DisplayLayout = "2006/01/02"

// DefaultOffsetHours is the fixed UTC offset used for the build date.
const DefaultOffsetHours = 9

// ErrInvalidDate is returned by Parse for strings that are not a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Formatter produces build dates in a fixed zone, independent of the host timezone.
type Formatter struct {
	loc *time.Location
	now func() time.Time
}

// NewFormatter returns a Formatter for the given UTC offset. A nil now uses time.Now.
func NewFormatter(offsetHours int, now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{
		loc: time.FixedZone(zoneName(offsetHours), offsetHours*60*60),
		now: now,
	}
}

var defaultFormatter = NewFormatter(DefaultOffsetHours, nil)

// CurrentDate returns today's date at UTC+9 as YYYY/MM/DD.
func CurrentDate() string { return defaultFormatter.CurrentDate() }

// Normalize is Formatter.Normalize on the default UTC+9 formatter.
func Normalize(input string) string { return defaultFormatter.Normalize(input) }

// Location returns the fixed zone of the formatter.
func (f *Formatter) Location() *time.Location { return f.loc }

// Now returns the formatter's clock reading in its zone.
func (f *Formatter) Now() time.Time { return f.now().In(f.loc) }

// CurrentDate returns the current date in the formatter's zone as YYYY/MM/DD.
func (f *Formatter) CurrentDate() string {
	return f.Now().Format(DisplayLayout)
}

// Normalize converts a date string to the slash-separated form.
// An empty input yields CurrentDate. Input already containing '/' is returned
// unchanged; otherwise every '-' becomes '/'. Field widths and ranges are not checked.
func (f *Formatter) Normalize(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return f.CurrentDate()
	}
	if strings.Contains(input, "/") {
		return input
	}
	return strings.ReplaceAll(input, "-", "/")
}

// Date is a validated calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse reads a normalized YYYY/MM/DD string and validates it against the calendar.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || t.Month() != d.Month || t.Day() != d.Day {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// String formats the date in DisplayLayout.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, int(d.Month), d.Day)
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

func zoneName(offsetHours int) string {
	if offsetHours == DefaultOffsetHours {
		return "JST"
	}
	return fmt.Sprintf("UTC%+d", offsetHours)
}
