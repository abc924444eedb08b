package usecase

import (
	"time"

	"github.com/nutrisnap/backend/internal/domain"
)

// MonthlyWindowDays is the length of the trailing window, today included
const MonthlyWindowDays = 30

// MonthlyWindowStart returns the first date (YYYY-MM-DD) inside the trailing window
func MonthlyWindowStart(now time.Time) string {
	return now.AddDate(0, 0, -MonthlyWindowDays).Format(domain.DateLayout)
}

// SelectWindows partitions entries into those dated today and those dated within
// the trailing 30 days. The input slice is not modified.
func SelectWindows(entries []domain.TrackerEntry, now time.Time) (today, monthly []domain.TrackerEntry) {
	todayDate := now.Format(domain.DateLayout)
	monthStart := MonthlyWindowStart(now)

	today = make([]domain.TrackerEntry, 0)
	monthly = make([]domain.TrackerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date == todayDate {
			today = append(today, entry)
		}
		if entry.Date >= monthStart {
			monthly = append(monthly, entry)
		}
	}
	return today, monthly
}
