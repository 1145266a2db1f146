// Package fiscal implements US federal fiscal calendar arithmetic. The fiscal year
// starts in October: October 2010 is FY2011 period 1.
package fiscal

import "time"

// YearForDate returns the federal fiscal year containing t.
func YearForDate(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year() + 1
	}
	return t.Year()
}

// PeriodForDate returns the fiscal period (1-12) containing t.
func PeriodForDate(t time.Time) int {
	m := int(t.Month())
	if m >= int(time.October) {
		return m - 9
	}
	return m + 3
}

// QuarterForPeriod maps a fiscal period (1-12) to its quarter (1-4).
func QuarterForPeriod(period int) int {
	return (period-1)/3 + 1
}

// PeriodsForQuarter returns the fiscal periods covered by a quarter.
func PeriodsForQuarter(quarter int) []int {
	start := (quarter-1)*3 + 1
	return []int{start, start + 1, start + 2}
}

// PeriodStart returns the first day of the given fiscal year and period.
func PeriodStart(fiscalYear, period int) time.Time {
	month := time.Month(period + 9)
	year := fiscalYear - 1
	if period > 3 {
		month = time.Month(period - 3)
		year = fiscalYear
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// PeriodEnd returns the last day of the given fiscal year and period.
func PeriodEnd(fiscalYear, period int) time.Time {
	return PeriodStart(fiscalYear, period).AddDate(0, 1, -1)
}

// WindowCoversDate reports whether a validity window [start, end] covers a single
// action date. Nil bounds are open.
func WindowCoversDate(start, end *time.Time, date time.Time) bool {
	if start != nil && date.Before(*start) {
		return false
	}
	if end != nil && date.After(*end) {
		return false
	}
	return true
}
