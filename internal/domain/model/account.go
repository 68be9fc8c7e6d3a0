package model

import "time"

// DateOf formats a time as the calendar-date key used for daily quotas.
func DateOf(t time.Time) string { return t.Format("2006-01-02") }

// Account is one rate-limited generation identity. DailyUsage counts
// successful video generations for the current calendar date; the counter
// rolls to zero lazily the first time the account is touched on a new date.
type Account struct {
	ID            int
	DailyUsage    int
	LastUsageDate string
	SessionAlive  bool
}

// RollOver resets the daily counter when the calendar date has changed.
func (a *Account) RollOver(today string) {
	if a.LastUsageDate != today {
		a.DailyUsage = 0
		a.LastUsageDate = today
	}
}

// Remaining reports spare capacity for today after a lazy rollover.
func (a *Account) Remaining(limit int, today string) int {
	a.RollOver(today)
	if r := limit - a.DailyUsage; r > 0 {
		return r
	}
	return 0
}

// Available reports whether the account can take one more video today.
func (a *Account) Available(limit int, today string) bool {
	return a.Remaining(limit, today) > 0
}

// AccountUsage is the persisted usage document for one account.
type AccountUsage struct {
	Usage    int    `json:"usage"`
	LastDate string `json:"last_date"`
}
