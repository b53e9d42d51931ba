package model

import "time"

// Period selects the report window.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a report-selection callback payload.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodWeekly, PeriodMonthly:
		return Period(s), true
	}
	return "", false
}

// Window returns how far back from "now" the report reaches.
func (p Period) Window() time.Duration {
	if p == PeriodMonthly {
		return 30 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}
