package cohort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costomenu/reconcile/internal/classify"
	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
)

func testAggregator() *Aggregator {
	cl := classify.New(config.EngineConfig{
		DormancyThresholdDays: 30,
		StaleThresholdDays:    90,
	}, domain.NewDate(2026, time.March, 15))
	return New(cl)
}

func TestBuildGroupsByRegistrationMonth(t *testing.T) {
	a := testAggregator()

	users := []domain.UserRecord{
		{UserID: "u-1", RegistrationDate: domain.NewDate(2026, time.January, 5), LastActivityDate: domain.NewDate(2026, time.March, 10)},
		{UserID: "u-2", RegistrationDate: domain.NewDate(2026, time.January, 20), LastActivityDate: domain.NewDate(2026, time.January, 25)},
		{UserID: "u-3", RegistrationDate: domain.NewDate(2026, time.February, 1), LastActivityDate: domain.NewDate(2026, time.February, 2)},
		{UserID: "u-4"}, // no registration date
	}
	res := a.Build(users)

	require.Len(t, res.Cohorts, 2)
	assert.Equal(t, 1, res.UnknownRegistration)

	jan := res.Cohorts[0]
	assert.Equal(t, domain.YearMonth{Year: 2026, Month: time.January}, jan.Period)
	assert.Equal(t, []string{"u-1", "u-2"}, jan.UserIDs)

	feb := res.Cohorts[1]
	assert.Equal(t, domain.YearMonth{Year: 2026, Month: time.February}, feb.Period)
	assert.Equal(t, 1, feb.Size())
}

func TestRetentionIsMonotonicallyNonIncreasing(t *testing.T) {
	a := testAggregator()

	users := []domain.UserRecord{
		{UserID: "u-1", RegistrationDate: domain.NewDate(2026, time.January, 5), LastActivityDate: domain.NewDate(2026, time.March, 10)},
		{UserID: "u-2", RegistrationDate: domain.NewDate(2026, time.January, 20), LastActivityDate: domain.NewDate(2026, time.January, 25)},
	}
	res := a.Build(users)

	require.Len(t, res.Cohorts, 1)
	retention := res.Cohorts[0].Retention

	// Reference month is March 2026: offsets 0, 1, 2.
	require.Len(t, retention, 3)
	assert.Equal(t, 1.0, retention[0]) // both active in their registration month
	assert.Equal(t, 0.5, retention[1]) // only u-1 active on/after Feb 1
	assert.Equal(t, 0.5, retention[2])
	for k := 1; k < len(retention); k++ {
		assert.LessOrEqual(t, retention[k], retention[k-1])
	}
}

func TestRetentionExcludesAbsentActivityMembers(t *testing.T) {
	a := testAggregator()

	users := []domain.UserRecord{
		{UserID: "u-1", RegistrationDate: domain.NewDate(2026, time.March, 1), LastActivityDate: domain.NewDate(2026, time.March, 5)},
		{UserID: "u-2", RegistrationDate: domain.NewDate(2026, time.March, 2)}, // never seen again
	}
	res := a.Build(users)

	require.Len(t, res.Cohorts, 1)
	assert.Equal(t, []float64{0.5}, res.Cohorts[0].Retention)
}

func TestConversionAndActivationRates(t *testing.T) {
	a := testAggregator()

	users := []domain.UserRecord{
		{UserID: "u-1", RegistrationDate: domain.NewDate(2026, time.March, 1), CRMStatedPayments: 120, LastActivityDate: domain.NewDate(2026, time.March, 5)},
		{UserID: "u-2", RegistrationDate: domain.NewDate(2026, time.March, 2), Usage: domain.UsageCounts{Recipes: 4}},
		{UserID: "u-3", RegistrationDate: domain.NewDate(2026, time.March, 3)},
		{UserID: "u-4", RegistrationDate: domain.NewDate(2026, time.March, 4), MatchedPayments: 30},
	}
	res := a.Build(users)

	require.Len(t, res.Cohorts, 1)
	c := res.Cohorts[0]
	assert.Equal(t, 2, c.PayingUsers)
	assert.Equal(t, 2, c.ActiveUsers)
	assert.Equal(t, 0.5, c.ConversionRate)
	assert.Equal(t, 0.5, c.ActivationRate)
	assert.Equal(t, 120.0, c.TotalRevenue)
}

func TestSeasonalityAlignsByCalendarMonth(t *testing.T) {
	a := testAggregator()

	users := []domain.UserRecord{
		{LastActivityDate: domain.NewDate(2025, time.March, 10)},
		{LastActivityDate: domain.NewDate(2025, time.March, 20)},
		{LastActivityDate: domain.NewDate(2025, time.July, 1)},
		{LastActivityDate: domain.NewDate(2026, time.March, 2)},
		{}, // no activity, not counted
	}
	series := a.Seasonality(users)

	require.Len(t, series, 2)
	assert.Equal(t, 2025, series[0].Year)
	assert.Equal(t, 2, series[0].Counts[int(time.March)-1])
	assert.Equal(t, 1, series[0].Counts[int(time.July)-1])
	assert.Equal(t, 2026, series[1].Year)
	assert.Equal(t, 1, series[1].Counts[int(time.March)-1])
}
