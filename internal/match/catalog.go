package match

import (
	"github.com/costomenu/reconcile/internal/domain"
)

// Catalog holds the user records indexed for the matcher passes. It is
// built once per run and is read-only afterwards, so matching may run
// concurrently over it.
type Catalog struct {
	users []domain.UserRecord

	byEmail   map[string][]int
	byNameKey map[string][]int
	byToken   map[string][]int

	// nameTokens[i] are the canonical name tokens of users[i];
	// matchTokens[i] additionally includes company tokens, for the
	// partial pass (first-name + company is a qualifying combination).
	nameTokens  [][]string
	matchTokens [][]string
}

// NewCatalog indexes the given user records.
func NewCatalog(users []domain.UserRecord) *Catalog {
	c := &Catalog{
		users:       users,
		byEmail:     make(map[string][]int, len(users)),
		byNameKey:   make(map[string][]int, len(users)),
		byToken:     make(map[string][]int),
		nameTokens:  make([][]string, len(users)),
		matchTokens: make([][]string, len(users)),
	}
	for i, u := range users {
		if u.Email != "" {
			c.byEmail[u.Email] = append(c.byEmail[u.Email], i)
		}

		tokens := NameTokens(u.FullName)
		c.nameTokens[i] = tokens
		if key := nameKey(tokens); key != "" {
			c.byNameKey[key] = append(c.byNameKey[key], i)
		}

		combined := tokens
		if u.Company != "" {
			combined = append([]string{}, tokens...)
			seen := make(map[string]struct{}, len(tokens))
			for _, tok := range tokens {
				seen[tok] = struct{}{}
			}
			for _, tok := range NameTokens(u.Company) {
				if _, dup := seen[tok]; dup {
					continue
				}
				seen[tok] = struct{}{}
				combined = append(combined, tok)
			}
		}
		c.matchTokens[i] = combined
		for _, tok := range combined {
			c.byToken[tok] = append(c.byToken[tok], i)
		}
	}
	return c
}

// user returns the record at index i.
func (c *Catalog) user(i int) domain.UserRecord { return c.users[i] }
