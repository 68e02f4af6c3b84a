package domain

import "time"

// ReportSchemaVersion identifies the interchange structure consumed by
// downstream reporting layers. Bump on any breaking field change.
const ReportSchemaVersion = "1"

// SourceCounts tallies what happened to one raw source during a run.
type SourceCounts struct {
	Source        string `json:"source"`
	TotalRows     int    `json:"totalRows"`
	ParsedRows    int    `json:"parsedRows"`
	MalformedRows int    `json:"malformedRows"`
	DuplicateRows int    `json:"duplicateRows"`
}

// ActiveUserCounts carries the three competing "active user" figures side by
// side. They measure different things; the engine never collapses them.
type ActiveUserCounts struct {
	CRMLicenseActive   int  `json:"crmLicenseActive"`
	StrictActivity     int  `json:"strictActivity"`
	DBVerifiedPaid     int  `json:"dbVerifiedPaid"`
	MaxDelta           int  `json:"maxDelta"`
	ConflictingFigures bool `json:"conflictingFigures"`
}

// RevenueReconciliation compares the payment export against matched totals.
type RevenueReconciliation struct {
	GrossTransactionTotal float64 `json:"grossTransactionTotal"`
	MatchedToUserTotal    float64 `json:"matchedToUserTotal"`
	UnmatchedTotal        float64 `json:"unmatchedTotal"`
	CRMStatedTotal        float64 `json:"crmStatedTotal"`
	MatchedTransactions   int     `json:"matchedTransactions"`
	TotalTransactions     int     `json:"totalTransactions"`
	MatchRatePercent      float64 `json:"matchRatePercent"`
}

// MatchBreakdown counts matcher outcomes per confidence tier.
type MatchBreakdown struct {
	Certain   int `json:"certain"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Ambiguous int `json:"ambiguous"`
	None      int `json:"none"`
}

// RowProblem records one malformed source row for audit.
type RowProblem struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// AtRiskUser is a zombie or at-risk user with the revenue exposure attached.
type AtRiskUser struct {
	UserID        string      `json:"userId"`
	FullName      string      `json:"fullName"`
	Email         string      `json:"email"`
	LicenseTier   LicenseTier `json:"licenseTier"`
	Expiration    Date        `json:"expiration"`
	LastActivity  Date        `json:"lastActivity"`
	RevenueAtRisk float64     `json:"revenueAtRisk"`
	Reason        string      `json:"reason"`
}

// WinBackCandidate is a lowest-tier user with payment history, optionally
// flagged as an upsell target when usage exceeds the configured ceiling.
type WinBackCandidate struct {
	UserID            string  `json:"userId"`
	FullName          string  `json:"fullName"`
	Email             string  `json:"email"`
	HistoricalPayments float64 `json:"historicalPayments"`
	RecipeCount       int     `json:"recipeCount"`
	UpsellTarget      bool    `json:"upsellTarget"`
	SuggestedAction   string  `json:"suggestedAction"`
}

// TierRevenue summarizes CRM-stated revenue per license tier.
type TierRevenue struct {
	Tier         LicenseTier `json:"tier"`
	PayingUsers  int         `json:"payingUsers"`
	TotalRevenue float64     `json:"totalRevenue"`
	AvgPayment   float64     `json:"avgPayment"`
}

// EngagementBands buckets users by days since last activity.
type EngagementBands struct {
	Active  int `json:"active"`  // <= strict threshold
	AtRisk  int `json:"atRisk"`  // between thresholds
	Dormant int `json:"dormant"` // > stale threshold
	Unknown int `json:"unknown"` // no recorded activity
}

// ReconciliationReport is the summary entity for one full run.
type ReconciliationReport struct {
	SchemaVersion string    `json:"schemaVersion"`
	RunID         string    `json:"runId"`
	GeneratedAt   time.Time `json:"generatedAt"`
	ReferenceDate Date      `json:"referenceDate"`

	Sources []SourceCounts `json:"sources"`

	ActiveCounts ActiveUserCounts      `json:"activeCounts"`
	Revenue      RevenueReconciliation `json:"revenue"`
	Matches      MatchBreakdown        `json:"matches"`

	UnmatchedTransactions []TransactionRecord `json:"unmatchedTransactions"`
	AmbiguousTransactions []TransactionRecord `json:"ambiguousTransactions"`
	UnmatchedIdentities   []VerifiedIdentity  `json:"unmatchedIdentities"`
	MalformedRows         []RowProblem        `json:"malformedRows"`

	AtRiskUsers       []AtRiskUser       `json:"atRiskUsers"`
	RevenueAtRisk     float64            `json:"revenueAtRisk"`
	WinBackCandidates []WinBackCandidate `json:"winBackCandidates"`

	Engagement  EngagementBands     `json:"engagement"`
	TierRevenue []TierRevenue       `json:"tierRevenue"`
	Cohorts     []Cohort            `json:"cohorts"`
	CohortUnknown int               `json:"cohortUnknown"`
	Seasonality []SeasonalitySeries `json:"seasonality"`
}
