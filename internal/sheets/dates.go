package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/safechecks/safechecks/pkg/model"
)

var (
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dmyDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	clockRe   = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)
)

// jsDateLayout matches the first 15 characters of a JavaScript
// Date.toString() value such as "Fri Feb 27 2026 00:00:00 GMT+0000".
const jsDateLayout = "Mon Jan 02 2006"

var textLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Monday, 2 January 2006",
	"Mon, 2 Jan 2006",
}

// NormalizeDate converts the date spellings a spreadsheet backend may
// return into YYYY-MM-DD. The second result is false when s is not a date.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		// A full instant is a serialized local date; shift it back.
		if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
			if t, err := time.Parse(time.RFC3339, s); err == nil && t.In(time.Local).Year() > 0 {
				return t.In(time.Local).Format(model.DateLayout), true
			}
		}
		return ymd(m[1], m[2], m[3])
	}
	if m := dmyDateRe.FindStringSubmatch(s); m != nil {
		return ymd(m[3], m[2], m[1])
	}
	if len(s) >= len(jsDateLayout) {
		if t, err := time.Parse(jsDateLayout, s[:len(jsDateLayout)]); err == nil {
			return t.Format(model.DateLayout), true
		}
	}
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.DateLayout), true
		}
	}
	return "", false
}

func ymd(y, m, d string) (string, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject rollovers such as 31/02.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(model.DateLayout), true
}

// NormalizeClock extracts HH:MM:SS from a time cell. Sheets serializes
// time-only cells as instants on 1899-12-30, so the clock part of any
// value is taken.
func NormalizeClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 && isoDateRe.MatchString(s) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.In(time.Local).Format("15:04:05"), true
		}
		s = s[i+1:]
	}
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if h > 23 || mi > 59 || sec > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, mi, sec), true
}
