package match

import (
	"sort"

	"github.com/costomenu/reconcile/internal/domain"
)

// Matcher resolves transactions and verified identities against the user
// catalog through the ordered strategy chain. A Matcher is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	catalog    *Catalog
	strategies []Strategy
}

// Options tunes the matcher.
type Options struct {
	// PartialThreshold is the minimum token-overlap score for a
	// medium-confidence match.
	PartialThreshold float64
}

// New builds a Matcher over the given users.
func New(users []domain.UserRecord, opts Options) *Matcher {
	threshold := opts.PartialThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Matcher{
		catalog:    NewCatalog(users),
		strategies: defaultStrategies(threshold),
	}
}

// MatchTransaction resolves one transaction to at most one user. Malformed
// identity evidence is an automatic no-match, never an error: matching
// always completes for every input row.
func (m *Matcher) MatchTransaction(tx domain.TransactionRecord) Outcome {
	// Suspect rows still probe by email: a repaired address is already
	// clean, and garbled bytes simply miss the index.
	return m.resolve(query{
		email:  tx.PayerEmail,
		tokens: NameTokens(tx.PayerName),
	})
}

// MatchIdentity resolves one verified (database-dump) identity to a CRM
// user through the same chain.
func (m *Matcher) MatchIdentity(id domain.VerifiedIdentity) Outcome {
	return m.resolve(query{email: id.Email, tokens: NameTokens(id.FullName)})
}

func (m *Matcher) resolve(q query) Outcome {
	for _, s := range m.strategies {
		candidates := s.Candidates(q, m.catalog)
		if len(candidates) == 0 {
			continue
		}
		outcome := m.decide(candidates, s)
		if outcome.Matched() || outcome.Ambiguous {
			return outcome
		}
	}
	return Outcome{Confidence: ConfidenceNone}
}

// decide applies the tie-break: among same-tier candidates prefer the most
// recent last activity; if still tied, the outcome is ambiguous and is
// excluded from per-user aggregation.
func (m *Matcher) decide(candidates []int, s Strategy) Outcome {
	sort.Ints(candidates)

	if len(candidates) == 1 {
		u := m.catalog.user(candidates[0])
		return Outcome{
			UserID:     u.UserID,
			Confidence: s.Confidence(),
			Strategy:   s.Name(),
			AuditFlag:  s.Confidence() == ConfidenceMedium,
		}
	}

	best := []int{candidates[0]}
	for _, idx := range candidates[1:] {
		switch {
		case m.moreRecent(idx, best[0]):
			best = []int{idx}
		case !m.moreRecent(best[0], idx):
			best = append(best, idx)
		}
	}

	if len(best) == 1 {
		u := m.catalog.user(best[0])
		return Outcome{
			UserID:     u.UserID,
			Confidence: s.Confidence(),
			Strategy:   s.Name(),
			AuditFlag:  s.Confidence() == ConfidenceMedium,
		}
	}

	ids := make([]string, 0, len(best))
	for _, idx := range best {
		ids = append(ids, m.catalog.user(idx).UserID)
	}
	sort.Strings(ids)
	return Outcome{
		Confidence: s.Confidence(),
		Strategy:   s.Name(),
		Ambiguous:  true,
		Candidates: ids,
	}
}

// moreRecent reports whether user a has a strictly more recent last
// activity than user b. Unknown dates lose to any known date.
func (m *Matcher) moreRecent(a, b int) bool {
	da := m.catalog.user(a).LastActivityDate
	db := m.catalog.user(b).LastActivityDate
	if !da.Known() {
		return false
	}
	if !db.Known() {
		return true
	}
	return db.Before(da)
}
