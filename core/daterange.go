package core

import "time"

const dateLayout = "2006-01-02"

// DateRange is a closed interval of calendar days in the account timezone.
type DateRange struct {
	Start  time.Time `json:"start"`
	Finish time.Time `json:"finish"`
}

// StatsWindow resolves the statistics window: a closed range of days days
// ending today in loc. Pure function of its inputs.
func StatsWindow(now time.Time, loc *time.Location, days int) DateRange {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DateRange{
		Start:  today.AddDate(0, 0, -(days - 1)),
		Finish: today,
	}
}

// StartDate formats the first day of the range as an ISO date.
func (r DateRange) StartDate() string { return r.Start.Format(dateLayout) }

// FinishDate formats the last day of the range as an ISO date.
func (r DateRange) FinishDate() string { return r.Finish.Format(dateLayout) }

// Days returns the inclusive length of the range in calendar days.
// Rounding absorbs the off-by-an-hour days introduced by DST transitions.
func (r DateRange) Days() int {
	return int(r.Finish.Sub(r.Start).Round(24*time.Hour).Hours()/24) + 1
}
