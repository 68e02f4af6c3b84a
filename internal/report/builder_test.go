package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costomenu/reconcile/internal/classify"
	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
)

var testEngine = config.EngineConfig{
	DormancyThresholdDays: 30,
	StaleThresholdDays:    90,
	UpsellRecipeCeiling:   30,
}

func testBuilder() *Builder {
	cl := classify.New(testEngine, domain.NewDate(2026, time.June, 30))
	return NewBuilder(cl, testEngine,
		WithClock(func() time.Time { return time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC) }),
		WithRunID(func() string { return "run-test" }),
	)
}

func TestActiveCountsAreReportedSideBySide(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{LicenseStatus: domain.LicenseActive, LastActivityDate: domain.NewDate(2026, time.June, 25)},
			{LicenseStatus: domain.LicenseActive, LastActivityDate: domain.NewDate(2026, time.January, 1)},
			{LicenseStatus: domain.LicenseExpired},
		},
		Identities: []domain.VerifiedIdentity{{Email: "x@example.com"}},
	}
	r := b.Build(in)

	assert.Equal(t, 2, r.ActiveCounts.CRMLicenseActive)
	assert.Equal(t, 1, r.ActiveCounts.StrictActivity)
	assert.Equal(t, 1, r.ActiveCounts.DBVerifiedPaid)
	assert.Equal(t, 1, r.ActiveCounts.MaxDelta)
	assert.True(t, r.ActiveCounts.ConflictingFigures)
}

func TestRevenueReconciliation(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{UserID: "u-1", CRMStatedPayments: 50, MatchedPayments: 20},
		},
		Transactions: []domain.TransactionRecord{
			{TxID: "t-1", Amount: 20, Status: domain.TxPaid, MatchedUserID: "u-1"},
			{TxID: "t-2", Amount: 15, Status: domain.TxPaid},
			{TxID: "t-3", Amount: 99, Status: domain.TxFailed},
		},
		UnmatchedTransactions: []domain.TransactionRecord{
			{TxID: "t-2", Amount: 15, Status: domain.TxPaid},
			{TxID: "t-3", Amount: 99, Status: domain.TxFailed},
		},
	}
	r := b.Build(in)

	// Failed transactions never contribute to revenue.
	assert.Equal(t, 35.0, r.Revenue.GrossTransactionTotal)
	assert.Equal(t, 20.0, r.Revenue.MatchedToUserTotal)
	assert.Equal(t, 15.0, r.Revenue.UnmatchedTotal)
	// CRM-stated and matched totals stay side by side, never summed.
	assert.Equal(t, 50.0, r.Revenue.CRMStatedTotal)
	assert.Equal(t, 1, r.Revenue.MatchedTransactions)
	assert.Equal(t, 3, r.Revenue.TotalTransactions)
	assert.InDelta(t, 33.33, r.Revenue.MatchRatePercent, 0.01)
}

func TestZombieRevenueAtRisk(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{
				UserID:            "u-zombie",
				LicenseStatus:     domain.LicenseActive,
				ExpirationDate:    domain.NewDate(2026, time.May, 1),
				LastActivityDate:  domain.NewDate(2026, time.June, 28),
				CRMStatedPayments: 300,
				HealthState:       domain.HealthAtRisk,
				HealthDiagnostic:  classify.ReasonZombieLicense,
			},
			{
				UserID:           "u-stale",
				LicenseStatus:    domain.LicenseActive,
				LastActivityDate: domain.NewDate(2026, time.April, 1),
				CRMStatedPayments: 100,
				HealthState:      domain.HealthAtRisk,
				HealthDiagnostic: classify.ReasonStaleActivity,
			},
		},
	}
	r := b.Build(in)

	require.Len(t, r.AtRiskUsers, 2)
	assert.Equal(t, "u-zombie", r.AtRiskUsers[0].UserID)
	assert.Equal(t, 300.0, r.AtRiskUsers[0].RevenueAtRisk)
	assert.Equal(t, 0.0, r.AtRiskUsers[1].RevenueAtRisk)
	assert.Equal(t, 300.0, r.RevenueAtRisk)
}

func TestWinBackCandidates(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{UserID: "u-1", LicenseTier: domain.TierBeginner, CRMStatedPayments: 80, Usage: domain.UsageCounts{Recipes: 45}},
			{UserID: "u-2", LicenseTier: domain.TierBeginner, CRMStatedPayments: 40, Usage: domain.UsageCounts{Recipes: 3}},
			{UserID: "u-3", LicenseTier: domain.TierBeginner}, // never paid
			{UserID: "u-4", LicenseTier: domain.TierExpert, CRMStatedPayments: 900},
		},
	}
	r := b.Build(in)

	require.Len(t, r.WinBackCandidates, 2)
	assert.Equal(t, "u-1", r.WinBackCandidates[0].UserID)
	assert.True(t, r.WinBackCandidates[0].UpsellTarget)
	assert.Equal(t, ActionUpsell, r.WinBackCandidates[0].SuggestedAction)
	assert.Equal(t, "u-2", r.WinBackCandidates[1].UserID)
	assert.False(t, r.WinBackCandidates[1].UpsellTarget)
	assert.Equal(t, ActionReactivate, r.WinBackCandidates[1].SuggestedAction)
}

func TestEngagementBands(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{LastActivityDate: domain.NewDate(2026, time.June, 20)},  // 10 days
			{LastActivityDate: domain.NewDate(2026, time.May, 1)},    // 60 days
			{LastActivityDate: domain.NewDate(2026, time.January, 1)}, // 180 days
			{}, // unknown
		},
	}
	r := b.Build(in)

	assert.Equal(t, 1, r.Engagement.Active)
	assert.Equal(t, 1, r.Engagement.AtRisk)
	assert.Equal(t, 1, r.Engagement.Dormant)
	assert.Equal(t, 1, r.Engagement.Unknown)
}

func TestTierRevenue(t *testing.T) {
	b := testBuilder()

	in := Input{
		Users: []domain.UserRecord{
			{LicenseTier: domain.TierExpert, CRMStatedPayments: 200},
			{LicenseTier: domain.TierExpert, CRMStatedPayments: 100},
			{LicenseTier: domain.TierBeginner, CRMStatedPayments: 10},
			{LicenseTier: domain.TierProfessional}, // no payments, excluded
		},
	}
	r := b.Build(in)

	require.Len(t, r.TierRevenue, 2)
	assert.Equal(t, domain.TierBeginner, r.TierRevenue[0].Tier)
	assert.Equal(t, domain.TierExpert, r.TierRevenue[1].Tier)
	assert.Equal(t, 2, r.TierRevenue[1].PayingUsers)
	assert.Equal(t, 300.0, r.TierRevenue[1].TotalRevenue)
	assert.Equal(t, 150.0, r.TierRevenue[1].AvgPayment)
}

func TestReportStamping(t *testing.T) {
	b := testBuilder()
	r := b.Build(Input{})

	assert.Equal(t, domain.ReportSchemaVersion, r.SchemaVersion)
	assert.Equal(t, "run-test", r.RunID)
	assert.Equal(t, time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC), r.GeneratedAt)
	assert.Equal(t, "2026-06-30", r.ReferenceDate.String())
}
