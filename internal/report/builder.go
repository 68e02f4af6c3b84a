// Package report merges the matcher, classifier and cohort outputs into the
// final reconciliation report consumed read-only by downstream layers.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/costomenu/reconcile/internal/classify"
	"github.com/costomenu/reconcile/internal/cohort"
	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
)

// Suggested actions for win-back candidates.
const (
	ActionReactivate = "offer-reactivation"
	ActionUpsell     = "offer-upsell"
)

// Input carries the upstream stage outputs for one run. Users arrive
// classified with matched payments applied; transaction lists are already
// split by match outcome.
type Input struct {
	Users []domain.UserRecord

	Transactions          []domain.TransactionRecord
	UnmatchedTransactions []domain.TransactionRecord
	AmbiguousTransactions []domain.TransactionRecord

	Identities          []domain.VerifiedIdentity
	UnmatchedIdentities []domain.VerifiedIdentity

	Sources  []domain.SourceCounts
	Problems []domain.RowProblem
	Matches  domain.MatchBreakdown

	Cohorts     cohort.Result
	Seasonality []domain.SeasonalitySeries
}

// Builder assembles reconciliation reports.
type Builder struct {
	classifier    *classify.Classifier
	upsellCeiling int
	now           func() time.Time
	newRunID      func() string
}

// Option customises a Builder.
type Option func(*Builder)

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithRunID overrides run-ID generation.
func WithRunID(gen func() string) Option {
	return func(b *Builder) { b.newRunID = gen }
}

// NewBuilder builds a report Builder sharing the run's classifier.
func NewBuilder(cl *classify.Classifier, cfg config.EngineConfig, opts ...Option) *Builder {
	b := &Builder{
		classifier:    cl,
		upsellCeiling: cfg.UpsellRecipeCeiling,
		now:           time.Now,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes the full report. Everything except RunID and GeneratedAt
// is a pure function of the input.
func (b *Builder) Build(in Input) domain.ReconciliationReport {
	r := domain.ReconciliationReport{
		SchemaVersion: domain.ReportSchemaVersion,
		RunID:         b.newRunID(),
		GeneratedAt:   b.now().UTC(),
		ReferenceDate: b.classifier.Reference(),

		Sources: in.Sources,
		Matches: in.Matches,

		UnmatchedTransactions: in.UnmatchedTransactions,
		AmbiguousTransactions: in.AmbiguousTransactions,
		UnmatchedIdentities:   in.UnmatchedIdentities,
		MalformedRows:         in.Problems,

		Cohorts:       in.Cohorts.Cohorts,
		CohortUnknown: in.Cohorts.UnknownRegistration,
		Seasonality:   in.Seasonality,
	}

	r.ActiveCounts = b.activeCounts(in)
	r.Revenue = b.revenue(in)
	r.AtRiskUsers, r.RevenueAtRisk = b.atRisk(in.Users)
	r.WinBackCandidates = b.winBack(in.Users)
	r.Engagement = b.engagement(in.Users)
	r.TierRevenue = tierRevenue(in.Users)
	return r
}

// activeCounts reports the three competing "active user" figures side by
// side. They measure different things; the delta is the insight and is
// never collapsed into one number.
func (b *Builder) activeCounts(in Input) domain.ActiveUserCounts {
	c := domain.ActiveUserCounts{DBVerifiedPaid: len(in.Identities)}
	for _, u := range in.Users {
		if u.LicenseStatus == domain.LicenseActive {
			c.CRMLicenseActive++
		}
		if b.classifier.StrictActive(u) {
			c.StrictActivity++
		}
	}

	min, max := c.CRMLicenseActive, c.CRMLicenseActive
	for _, n := range []int{c.StrictActivity, c.DBVerifiedPaid} {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	c.MaxDelta = max - min
	c.ConflictingFigures = c.MaxDelta > 0
	return c
}

func (b *Builder) revenue(in Input) domain.RevenueReconciliation {
	rev := domain.RevenueReconciliation{TotalTransactions: len(in.Transactions)}
	for _, tx := range in.Transactions {
		if tx.CountsTowardRevenue() {
			rev.GrossTransactionTotal += tx.Amount
		}
		if tx.MatchedUserID != "" {
			rev.MatchedTransactions++
		}
	}
	for _, tx := range in.UnmatchedTransactions {
		if tx.CountsTowardRevenue() {
			rev.UnmatchedTotal += tx.Amount
		}
	}
	for _, tx := range in.AmbiguousTransactions {
		if tx.CountsTowardRevenue() {
			rev.UnmatchedTotal += tx.Amount
		}
	}
	for _, u := range in.Users {
		rev.MatchedToUserTotal += u.MatchedPayments
		rev.CRMStatedTotal += u.CRMStatedPayments
	}
	if rev.TotalTransactions > 0 {
		rev.MatchRatePercent = 100 * float64(rev.MatchedTransactions) / float64(rev.TotalTransactions)
	}
	return rev
}

// atRisk lists AtRisk users with the revenue exposure attached. Only the
// zombie case carries stated payments as revenue at risk; a merely stale
// user may still come back on their own.
func (b *Builder) atRisk(users []domain.UserRecord) ([]domain.AtRiskUser, float64) {
	var out []domain.AtRiskUser
	total := 0.0
	for _, u := range users {
		if u.HealthState != domain.HealthAtRisk {
			continue
		}
		entry := domain.AtRiskUser{
			UserID:       u.UserID,
			FullName:     u.FullName,
			Email:        u.Email,
			LicenseTier:  u.LicenseTier,
			Expiration:   u.ExpirationDate,
			LastActivity: u.LastActivityDate,
			Reason:       u.HealthDiagnostic,
		}
		if b.classifier.Zombie(u) {
			entry.RevenueAtRisk = u.CRMStatedPayments
			total += entry.RevenueAtRisk
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RevenueAtRisk != out[j].RevenueAtRisk {
			return out[i].RevenueAtRisk > out[j].RevenueAtRisk
		}
		return out[i].UserID < out[j].UserID
	})
	return out, total
}

// winBack lists lowest-tier users with payment history, which signals a
// downgrade or lapse from a higher tier.
func (b *Builder) winBack(users []domain.UserRecord) []domain.WinBackCandidate {
	var out []domain.WinBackCandidate
	for _, u := range users {
		if u.LicenseTier != domain.TierBeginner || u.CRMStatedPayments == 0 {
			continue
		}
		cand := domain.WinBackCandidate{
			UserID:             u.UserID,
			FullName:           u.FullName,
			Email:              u.Email,
			HistoricalPayments: u.CRMStatedPayments,
			RecipeCount:        u.Usage.Recipes,
			UpsellTarget:       u.Usage.Recipes > b.upsellCeiling,
			SuggestedAction:    ActionReactivate,
		}
		if cand.UpsellTarget {
			cand.SuggestedAction = ActionUpsell
		}
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HistoricalPayments != out[j].HistoricalPayments {
			return out[i].HistoricalPayments > out[j].HistoricalPayments
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (b *Builder) engagement(users []domain.UserRecord) domain.EngagementBands {
	bands := domain.EngagementBands{}
	for _, u := range users {
		days, ok := b.classifier.DaysSinceActivity(u)
		switch {
		case !ok:
			bands.Unknown++
		case days <= b.classifier.DormancyDays():
			bands.Active++
		case days <= b.classifier.StaleDays():
			bands.AtRisk++
		default:
			bands.Dormant++
		}
	}
	return bands
}

var tierOrder = []domain.LicenseTier{
	domain.TierBeginner,
	domain.TierProfessional,
	domain.TierExpert,
	domain.TierUnknown,
}

func tierRevenue(users []domain.UserRecord) []domain.TierRevenue {
	byTier := make(map[domain.LicenseTier]*domain.TierRevenue)
	for _, u := range users {
		if u.CRMStatedPayments <= 0 {
			continue
		}
		entry, ok := byTier[u.LicenseTier]
		if !ok {
			entry = &domain.TierRevenue{Tier: u.LicenseTier}
			byTier[u.LicenseTier] = entry
		}
		entry.PayingUsers++
		entry.TotalRevenue += u.CRMStatedPayments
	}

	var out []domain.TierRevenue
	for _, tier := range tierOrder {
		entry, ok := byTier[tier]
		if !ok {
			continue
		}
		entry.AvgPayment = entry.TotalRevenue / float64(entry.PayingUsers)
		out = append(out, *entry)
	}
	return out
}
