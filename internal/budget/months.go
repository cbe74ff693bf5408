package budget

import (
	"errors"
	"strings"
	"time"
)

// Month is a canonical three-letter month code.
type Month string

// Canonical month codes in calendar order.
const (
	Jan Month = "Jan"
	Feb Month = "Feb"
	Mar Month = "Mar"
	Apr Month = "Apr"
	May Month = "May"
	Jun Month = "Jun"
	Jul Month = "Jul"
	Aug Month = "Aug"
	Sep Month = "Sep"
	Oct Month = "Oct"
	Nov Month = "Nov"
	Dec Month = "Dec"
)

// Months lists the canonical codes in calendar order.
var Months = []Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

var fullNames = map[Month]string{
	Jan: "january", Feb: "february", Mar: "march", Apr: "april",
	May: "may", Jun: "june", Jul: "july", Aug: "august",
	Sep: "september", Oct: "october", Nov: "november", Dec: "december",
}

// ErrInvalidHeader indicates a header does not resolve to a month.
var ErrInvalidHeader = errors.New("budget: header is not a month")

// ParseMonth maps a spreadsheet column header such as "January" or
// "JAN-25" to its canonical month code. Callers treat the error as
// "this is a non-month column", not as a failure of the whole import.
func ParseMonth(header string) (Month, error) {
	cleaned := strings.Join(strings.Fields(header), " ")
	lower := strings.ToLower(cleaned)
	if len(lower) >= 3 {
		prefix := lower[:3]
		for _, m := range Months {
			if prefix == strings.ToLower(string(m)) {
				return m, nil
			}
		}
	}
	for _, m := range Months {
		if strings.HasPrefix(lower, fullNames[m]) {
			return m, nil
		}
	}
	return "", ErrInvalidHeader
}

// MonthOf returns the canonical code for a date's calendar month.
func MonthOf(t time.Time) Month {
	return Months[int(t.Month())-1]
}
