package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// query is the identity evidence extracted from a transaction or a verified
// identity before the passes run.
type query struct {
	email  string
	tokens []string
}

// Strategy is one pass of the matcher chain: given the query and the
// catalog, it returns candidate user indexes at its confidence tier. Passes
// are pure and independently testable.
type Strategy interface {
	Name() string
	Confidence() Confidence
	Candidates(q query, c *Catalog) []int
}

// exactEmail matches on the case/whitespace-normalized email.
type exactEmail struct{}

func (exactEmail) Name() string           { return "exact-email" }
func (exactEmail) Confidence() Confidence { return ConfidenceCertain }

func (exactEmail) Candidates(q query, c *Catalog) []int {
	if q.email == "" {
		return nil
	}
	return c.byEmail[q.email]
}

// normalizedName requires full-token-set equality of canonical names.
type normalizedName struct{}

func (normalizedName) Name() string           { return "normalized-name" }
func (normalizedName) Confidence() Confidence { return ConfidenceHigh }

func (normalizedName) Candidates(q query, c *Catalog) []int {
	key := nameKey(q.tokens)
	if key == "" {
		return nil
	}
	return c.byNameKey[key]
}

// partialName scores token-subset overlap (name plus company tokens)
// against a fixed threshold. Exact token equality scores 1.0; distinct
// substring containment and single-edit variants score 0.8, which absorbs
// the suffix variation of transliterated surnames (BAKAL / BAKALIS).
type partialName struct {
	threshold float64
}

func (partialName) Name() string           { return "partial-name" }
func (partialName) Confidence() Confidence { return ConfidenceMedium }

func (p partialName) Candidates(q query, c *Catalog) []int {
	if len(q.tokens) < 2 {
		return nil
	}

	pool := make(map[int]struct{})
	for _, tok := range q.tokens {
		for _, idx := range c.byToken[tok] {
			pool[idx] = struct{}{}
		}
		// Substring and near-miss tokens don't hit the index; widen the
		// pool through prefix probes only when the token is long enough
		// to be distinctive.
		if len(tok) > 3 {
			for indexed, idxs := range c.byToken {
				if tokensComparable(tok, indexed) && tokenScore(tok, indexed) > 0 {
					for _, idx := range idxs {
						pool[idx] = struct{}{}
					}
				}
			}
		}
	}

	best := 0.0
	var candidates []int
	for idx := range pool {
		score, evidence := overlapScore(q.tokens, c.matchTokens[idx])
		// A single shared token is not enough: both qualifying shapes
		// (first-name + company, two of three name tokens) rest on two
		// independent pieces of evidence.
		if evidence < 2 || score < p.threshold {
			continue
		}
		switch {
		case score > best:
			best = score
			candidates = []int{idx}
		case score == best:
			candidates = append(candidates, idx)
		}
	}
	return candidates
}

// overlapScore is the token-overlap score normalized by the smaller token
// set, so a short payer description can still clear the threshold against a
// full name-plus-company record. Near-equal tokens earn partial credit. It
// also reports how many query tokens found a counterpart at all.
func overlapScore(a, b []string) (float64, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	total := 0.0
	evidence := 0
	for _, ta := range a {
		bestTok := 0.0
		for _, tb := range b {
			if s := tokenScore(ta, tb); s > bestTok {
				bestTok = s
			}
		}
		if bestTok > 0 {
			evidence++
		}
		total += bestTok
	}
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	return total / float64(min), evidence
}

func tokensComparable(a, b string) bool {
	return len(a) > 3 && len(b) > 3
}

func tokenScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if !tokensComparable(a, b) {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}
	if len(a) >= 5 && len(b) >= 5 && levenshtein.ComputeDistance(a, b) <= 1 {
		return 0.8
	}
	return 0
}

// defaultStrategies is the ordered chain; a transaction leaves the chain at
// the first pass that yields a match.
func defaultStrategies(partialThreshold float64) []Strategy {
	return []Strategy{
		exactEmail{},
		normalizedName{},
		partialName{threshold: partialThreshold},
	}
}
