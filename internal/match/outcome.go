package match

// Confidence tiers an identity-matching outcome; tiers are strictly ordered
// and a lower pass never overrides a higher one.
type Confidence string

const (
	ConfidenceCertain Confidence = "certain" // exact email
	ConfidenceHigh    Confidence = "high"    // full normalized-name equality
	ConfidenceMedium  Confidence = "medium"  // partial token overlap, audit-flagged
	ConfidenceNone    Confidence = "none"
)

// Outcome is the result of resolving one transaction (or one verified
// identity) against the user catalog.
type Outcome struct {
	UserID     string
	Confidence Confidence
	Strategy   string

	// Ambiguous is set when multiple users matched at the same tier and the
	// recency tie-break could not separate them. Ambiguous outcomes are
	// reported and excluded from per-user aggregation.
	Ambiguous  bool
	Candidates []string

	// AuditFlag marks medium-confidence matches, which are retained but
	// never trusted at face value for financial totals.
	AuditFlag bool
}

// Matched reports whether the outcome links to exactly one user.
func (o Outcome) Matched() bool {
	return o.UserID != "" && !o.Ambiguous
}
