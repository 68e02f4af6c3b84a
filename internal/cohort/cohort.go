// Package cohort buckets users by registration month and derives retention
// and seasonality series. Cohorts are recomputed wholesale every run.
package cohort

import (
	"sort"

	"github.com/costomenu/reconcile/internal/classify"
	"github.com/costomenu/reconcile/internal/domain"
)

// Aggregator groups users into registration cohorts relative to the
// classifier's reference date.
type Aggregator struct {
	classifier *classify.Classifier
}

// New builds an Aggregator sharing the run's classifier, so retention and
// the report use the same activity definitions.
func New(cl *classify.Classifier) *Aggregator {
	return &Aggregator{classifier: cl}
}

// Result carries the cohort analysis for one run.
type Result struct {
	Cohorts []domain.Cohort

	// UnknownRegistration counts users excluded from cohort analysis
	// because their registration date is absent.
	UnknownRegistration int
}

// Build groups every user by registration month and computes per-cohort
// retention curves up to the reference month. Users without a registration
// date are excluded and counted separately.
func (a *Aggregator) Build(users []domain.UserRecord) Result {
	byPeriod := make(map[domain.YearMonth][]domain.UserRecord)
	res := Result{}

	for _, u := range users {
		if !u.RegistrationDate.Known() {
			res.UnknownRegistration++
			continue
		}
		period := u.RegistrationDate.Month()
		byPeriod[period] = append(byPeriod[period], u)
	}

	refMonth := a.classifier.Reference().Month()
	for period, members := range byPeriod {
		res.Cohorts = append(res.Cohorts, a.buildCohort(period, members, refMonth))
	}

	sort.Slice(res.Cohorts, func(i, j int) bool {
		a, b := res.Cohorts[i].Period, res.Cohorts[j].Period
		return a.Year < b.Year || (a.Year == b.Year && a.Month < b.Month)
	})
	return res
}

func (a *Aggregator) buildCohort(period domain.YearMonth, members []domain.UserRecord, refMonth domain.YearMonth) domain.Cohort {
	c := domain.Cohort{Period: period}

	for _, u := range members {
		c.UserIDs = append(c.UserIDs, u.UserID)
		if u.CRMStatedPayments > 0 || u.MatchedPayments > 0 {
			c.PayingUsers++
		}
		if activated(u) {
			c.ActiveUsers++
		}
		c.TotalRevenue += u.CRMStatedPayments
	}
	sort.Strings(c.UserIDs)

	size := float64(len(members))
	c.ConversionRate = float64(c.PayingUsers) / size
	c.ActivationRate = float64(c.ActiveUsers) / size

	// Retention at offset k: the fraction of members whose last activity
	// falls on or after the first day of period+k. The curve is
	// non-increasing by construction; members with no recorded activity
	// never count at any offset.
	offsets := period.Offset(refMonth)
	if offsets < 0 {
		offsets = 0
	}
	c.Retention = make([]float64, offsets+1)
	for k := 0; k <= offsets; k++ {
		cutoff := period.Add(k).FirstDay()
		active := 0
		for _, u := range members {
			if u.LastActivityDate.Known() && !u.LastActivityDate.Before(cutoff) {
				active++
			}
		}
		c.Retention[k] = float64(active) / size
	}
	return c
}

// activated reports whether the member ever showed signs of life: recorded
// activity or any usage counter above zero.
func activated(u domain.UserRecord) bool {
	return u.LastActivityDate.Known() ||
		u.Usage.Recipes > 0 || u.Usage.Ingredients > 0 ||
		u.Usage.Menus > 0 || u.Usage.Distributors > 0
}

// Seasonality counts users by the calendar month of their last activity,
// grouped per year with months aligned by position so that years overlay
// directly in a year-over-year comparison.
func (a *Aggregator) Seasonality(users []domain.UserRecord) []domain.SeasonalitySeries {
	byYear := make(map[int]*domain.SeasonalitySeries)
	for _, u := range users {
		if !u.LastActivityDate.Known() {
			continue
		}
		m := u.LastActivityDate.Month()
		series, ok := byYear[m.Year]
		if !ok {
			series = &domain.SeasonalitySeries{Year: m.Year}
			byYear[m.Year] = series
		}
		series.Counts[int(m.Month)-1]++
	}

	out := make([]domain.SeasonalitySeries, 0, len(byYear))
	for _, series := range byYear {
		out = append(out, *series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
