// Package classify derives the behavioural health state of each user. The
// classifier is evaluated fresh each run against a reference date; it keeps
// no state between runs.
package classify

import (
	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
)

// Diagnostic reason codes. They are data, not prose: downstream layers map
// them to display text.
const (
	ReasonDormantAbandoned = "dormant/abandoned"
	ReasonBlindSpot        = "blind-spot"
	ReasonCriticalBlank    = "critical-blank"
	ReasonZombieLicense    = "zombie-license"
	ReasonStaleActivity    = "stale-activity"
	ReasonExpiredLicense   = "expired-license"
)

type diagnosticKey struct {
	tier  domain.LicenseTier
	state domain.HealthState
}

// diagnostics keys the segment-dependent reason codes by (segment, state),
// so the engine output stays data-only and presentation layers never
// re-derive the branching. The Unknown-state codes depend only on the
// segment: a Beginner with no recorded activity most likely abandoned the
// product, while an untracked paying Professional or Expert is a tracking
// gap, not churn.
var diagnostics = map[diagnosticKey]string{
	{tier: domain.TierBeginner, state: domain.HealthUnknown}:     ReasonDormantAbandoned,
	{tier: domain.TierProfessional, state: domain.HealthUnknown}: ReasonBlindSpot,
	{tier: domain.TierExpert, state: domain.HealthUnknown}:       ReasonCriticalBlank,
}

// Classifier assigns health states relative to a fixed reference date.
type Classifier struct {
	reference    domain.Date
	dormancyDays int
	staleDays    int
}

// New builds a Classifier from the engine thresholds. The reference date
// must be known; runs anchor it to the run date or an explicit override.
func New(cfg config.EngineConfig, reference domain.Date) *Classifier {
	return &Classifier{
		reference:    reference,
		dormancyDays: cfg.DormancyThresholdDays,
		staleDays:    cfg.StaleThresholdDays,
	}
}

// Classify returns the health state and diagnostic reason for one user.
// Classification is total: every record receives exactly one state. The
// rules apply in priority order and the first that fires wins.
func (c *Classifier) Classify(u domain.UserRecord) (domain.HealthState, string) {
	hasActivity := u.LastActivityDate.Known()

	// No recorded activity on a known tier is a tracking blind spot, not
	// evidence of churn. The reason code depends only on the segment.
	if !hasActivity && knownTier(u.LicenseTier) {
		return domain.HealthUnknown, diagnostics[diagnosticKey{tier: u.LicenseTier, state: domain.HealthUnknown}]
	}

	if hasActivity && u.LicenseStatus == domain.LicenseActive && c.daysSince(u) > c.dormancyDays {
		return domain.HealthAtRisk, ReasonStaleActivity
	}

	// The zombie case: nominally active but the license lapsed.
	if u.LicenseStatus == domain.LicenseActive && u.ExpirationDate.Before(c.reference) {
		return domain.HealthAtRisk, ReasonZombieLicense
	}

	if u.LicenseStatus == domain.LicenseExpired {
		return domain.HealthDormant, ReasonExpiredLicense
	}
	if !hasActivity || c.daysSince(u) > c.staleDays {
		return domain.HealthDormant, ReasonStaleActivity
	}

	return domain.HealthActive, ""
}

// Apply classifies every record onto a fresh slice; the inputs are never
// mutated.
func (c *Classifier) Apply(users []domain.UserRecord) []domain.UserRecord {
	out := make([]domain.UserRecord, len(users))
	for i, u := range users {
		state, reason := c.Classify(u)
		u.HealthState = state
		u.HealthDiagnostic = reason
		out[i] = u
	}
	return out
}

// Zombie reports whether the user is nominally active with a lapsed
// license; their stated payments count as revenue at risk.
func (c *Classifier) Zombie(u domain.UserRecord) bool {
	return u.LicenseStatus == domain.LicenseActive && u.ExpirationDate.Before(c.reference)
}

// StrictActive is the strict activity definition: last activity within the
// dormancy window of the reference date.
func (c *Classifier) StrictActive(u domain.UserRecord) bool {
	return u.LastActivityDate.Known() && c.daysSince(u) <= c.dormancyDays
}

// LooseActive is the license-based definition: the user holds a paid tier
// regardless of recency. The two definitions are independent and both are
// computed from the same record, never re-derived.
func (c *Classifier) LooseActive(u domain.UserRecord) bool {
	return u.LicenseTier == domain.TierProfessional || u.LicenseTier == domain.TierExpert
}

// DaysSinceActivity returns whole days between the last activity and the
// reference date; ok is false when no activity is recorded.
func (c *Classifier) DaysSinceActivity(u domain.UserRecord) (int, bool) {
	if !u.LastActivityDate.Known() {
		return 0, false
	}
	return c.daysSince(u), true
}

// Reference returns the date the classifier evaluates against.
func (c *Classifier) Reference() domain.Date { return c.reference }

// DormancyDays returns the strict activity window in days.
func (c *Classifier) DormancyDays() int { return c.dormancyDays }

// StaleDays returns the dormancy cutoff in days.
func (c *Classifier) StaleDays() int { return c.staleDays }

func (c *Classifier) daysSince(u domain.UserRecord) int {
	return u.LastActivityDate.DaysUntil(c.reference)
}

func knownTier(t domain.LicenseTier) bool {
	switch t {
	case domain.TierBeginner, domain.TierProfessional, domain.TierExpert:
		return true
	}
	return false
}
