// Package textutil holds the small string and date helpers shared by the
// domain, serialization and prompt packages.
package textutil

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ISOLayout is the calendar-date form used in exports and API payloads.
	ISOLayout = "2006-01-02"
	// DisplayLayout is the day-first form shown to travellers and used in prompts.
	DisplayLayout = "02/01/2006"
)

// Slugify converts s into a URL-safe, lowercase, hyphenated slug.
// Accents are folded ("São Paulo" → "sao-paulo"); any run of characters other
// than ASCII letters and digits collapses into a single hyphen, and leading
// or trailing hyphens are trimmed. An input with no letters or digits yields "".
func Slugify(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// foldAccents decomposes runes and drops the combining marks.
// A new chain is built per call because transform.Transformer is stateful.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// ParseDate accepts a calendar date (2006-01-02 or 02/01/2006) or an RFC 3339
// timestamp and returns it in UTC. Date-only input becomes midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, ISOLayout, DisplayLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ISODate formats t as 2006-01-02.
func ISODate(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// DisplayDate formats t as 02/01/2006.
func DisplayDate(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}

// ISOToDisplay rewrites "2024-11-14" as "14/11/2024".
func ISOToDisplay(s string) (string, error) {
	t, err := time.Parse(ISOLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("textutil.ISOToDisplay: %w", err)
	}
	return t.Format(DisplayLayout), nil
}

// DisplayToISO rewrites "14/11/2024" as "2024-11-14".
func DisplayToISO(s string) (string, error) {
	t, err := time.Parse(DisplayLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("textutil.DisplayToISO: %w", err)
	}
	return t.Format(ISOLayout), nil
}

// TruncateDay returns midnight UTC of t's calendar day.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayCount returns the inclusive number of calendar days between start and
// end. It is 1 for a same-day range and 0 when end is before start.
func DayCount(start, end time.Time) int {
	s, e := TruncateDay(start), TruncateDay(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
