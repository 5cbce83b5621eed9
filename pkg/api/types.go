package api

// UsageResponse represents the current character usage for a user
type UsageResponse struct {
	UserID  string       `json:"user_id"`
	Daily   DailyUsage   `json:"daily"`
	Monthly MonthlyUsage `json:"monthly"`
}

// DailyUsage is the current day's counter against the daily ceiling
type DailyUsage struct {
	PeriodKey  int `json:"period_key"` // YYYYMMDD
	Characters int `json:"characters"`
	Limit      int `json:"limit"`
	Remaining  int `json:"remaining"`
}

// MonthlyUsage is the current month's counter. Monthly usage is tracked for
// reporting only and carries no ceiling.
type MonthlyUsage struct {
	PeriodKey  int `json:"period_key"` // YYYYMM
	Characters int `json:"characters"`
}

// LanguagesResponse lists the languages the configured service supports
type LanguagesResponse struct {
	Languages map[string]string `json:"languages"`
}
