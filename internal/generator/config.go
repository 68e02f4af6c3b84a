package generator

// Config tunes synthetic export generation.
type Config struct {
	NumUsers        int
	NumTransactions int

	// MatchedShare is the probability that a transaction references a
	// generated CRM user rather than an unknown buyer.
	MatchedShare float64
	// GreekShare is the probability that a payment row carries the payer
	// name in Greek script instead of the CRM's Latin spelling.
	GreekShare float64
	// MojibakeShare is the probability that a payment row's text fields
	// arrive mis-decoded, as the legacy export pipeline produces them.
	MojibakeShare float64
	// DuplicateShare is the probability that a row is emitted twice.
	DuplicateShare float64
	// VerifiedShare is the fraction of users present in the
	// verified-licenses table.
	VerifiedShare float64

	Seed int64
}

// DefaultConfig returns generation defaults sized for local development.
func DefaultConfig() Config {
	return Config{
		NumUsers:        400,
		NumTransactions: 1200,
		MatchedShare:    0.7,
		GreekShare:      0.5,
		MojibakeShare:   0.05,
		DuplicateShare:  0.03,
		VerifiedShare:   0.04,
		Seed:            0,
	}
}
