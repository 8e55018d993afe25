package report

import (
	"strings"
	"time"
)

var monthLayouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2006-01",
	"01/2006",
	"1/2006",
}

// parseMonth interprets a month-column header. The returned time is the
// first day of that month in UTC.
func parseMonth(label string) (time.Time, bool) {
	s := strings.Join(strings.Fields(label), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// period derives the report period label and the inclusive date range for
// the given first and last months.
func period(first, last time.Time) (label, start, end string) {
	label = first.Format("2006")
	if last.Year() != first.Year() {
		label += "-" + last.Format("2006")
	}
	start = first.Format("2006-01-02")
	end = last.AddDate(0, 1, -1).Format("2006-01-02")
	return label, start, end
}
