package domain

// Cohort groups the users who registered in the same calendar month.
// Cohorts are recomputed wholesale on every run.
type Cohort struct {
	Period  YearMonth `json:"period"`
	UserIDs []string  `json:"userIds"`

	// Retention[k] is the fraction of members active at month offset k,
	// where active means last activity on or after the first day of
	// Period + k. Retention is non-increasing in k.
	Retention []float64 `json:"retention"`

	PayingUsers    int     `json:"payingUsers"`
	ActiveUsers    int     `json:"activeUsers"` // any recorded activity or usage
	TotalRevenue   float64 `json:"totalRevenue"`
	ConversionRate float64 `json:"conversionRate"`
	ActivationRate float64 `json:"activationRate"`
}

// Size returns the cohort member count.
func (c Cohort) Size() int { return len(c.UserIDs) }

// SeasonalitySeries carries strict-active user counts per calendar month for
// one year, aligned by month position so that years overlay directly.
type SeasonalitySeries struct {
	Year   int     `json:"year"`
	Counts [12]int `json:"counts"` // index 0 = January
}
