package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

// PlaceKey canonicalises a place name for comparison: compatibility
// decomposition, combining marks dropped, lower-cased, whitespace collapsed.
func PlaceKey(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	space := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SamePlace reports whether two place names refer to the same canonical place.
func SamePlace(a, b string) bool {
	return PlaceKey(a) == PlaceKey(b)
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// ParseDay parses a YYYY-MM-DD date (a full RFC 3339 timestamp is also accepted).
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return time.Time{}, err
		}
		t = ts
	}
	return Day(t), nil
}

// Route is the (origin, destination, day) triple trips and offers are matched on.
type Route struct {
	Origin      string
	Destination string
	Date        time.Time
}

// Matches reports whether two routes share canonical origin, destination and day.
func (r Route) Matches(other Route) bool {
	return SamePlace(r.Origin, other.Origin) &&
		SamePlace(r.Destination, other.Destination) &&
		SameDay(r.Date, other.Date)
}
