// Package datetime provides the month arithmetic used to label amortization
// schedules.
package datetime

import (
	"time"

	"github.com/iwvelando/calckit/pkg/constants"
)

const (
	// DateTimeLayout is the format expected for start months and is also the
	// output date format.
	DateTimeLayout = constants.DateTimeLayout
)

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// PeriodDate labels payment number period (1-based) of a schedule whose first
// payment falls in startDate.
func PeriodDate(startDate string, period int) (string, error) {
	return OffsetDate(startDate, DateTimeLayout, period-1)
}
