// Package verified loads the ground-truth table of verified paid-active
// licenses (the relational dump). The table is used only for cross-checking
// against the CRM; it is never the primary identity source.
package verified

import (
	"context"
	"errors"

	"github.com/costomenu/reconcile/internal/domain"
)

// SourceName identifies the verified-stats table in report source counts.
const SourceName = "verified"

// Source is the contract for fetching the verified-stats table. Two
// implementations exist: a CSV snapshot and a live Postgres query.
type Source interface {
	Fetch(ctx context.Context) ([]domain.VerifiedIdentity, error)
	Close() error
}

// ErrNotConfigured indicates neither a snapshot path nor a database DSN was
// provided for the verified source.
var ErrNotConfigured = errors.New("verified source is not configured")
