// Package recurrence expands a recurring transaction request into the dated
// instances that follow its start date.
package recurrence

import (
	"fmt"

	"fintrack/internal/models"
)

// MaxInstances bounds a series regardless of its end date. A series without
// an end date therefore materializes exactly MaxInstances instances.
const MaxInstances = 60

// step returns the AddDate arguments for one period of freq.
func step(freq models.RecurringFrequency) (years, months, days int, err error) {
	switch freq {
	case models.FrequencyWeekly:
		return 0, 0, 7, nil
	case models.FrequencyMonthly:
		return 0, 1, 0, nil
	case models.FrequencyYearly:
		return 1, 0, 0, nil
	}
	return 0, 0, 0, fmt.Errorf("unknown recurring frequency %q", freq)
}

// Generate returns the dates after start at which instances of the series
// fall, ascending. start itself is never included. Each date is computed
// from the previous one with calendar arithmetic, so Jan 31 monthly yields
// Mar 3 (Feb 31 normalized) and then Apr 3. Generation stops before the
// first date later than end, or after MaxInstances dates.
func Generate(start models.Date, freq models.RecurringFrequency, end *models.Date) ([]models.Date, error) {
	years, months, days, err := step(freq)
	if err != nil {
		return nil, err
	}

	dates := make([]models.Date, 0, 8)
	current := start
	for len(dates) < MaxInstances {
		current = current.AddDate(years, months, days)
		if end != nil && current.After(*end) {
			break
		}
		dates = append(dates, current)
	}
	return dates, nil
}
