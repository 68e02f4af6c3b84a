// Package pipeline orchestrates one reconciliation run: normalize the raw
// sources, match identities, classify health, aggregate cohorts, build the
// report. Stages run strictly in order; each consumes only the previous
// stage's output plus its own raw source.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/classify"
	"github.com/costomenu/reconcile/internal/cohort"
	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/match"
	"github.com/costomenu/reconcile/internal/normalize"
	"github.com/costomenu/reconcile/internal/report"
	"github.com/costomenu/reconcile/internal/verified"
)

// Result is the full output of one run: the reconciled records plus the
// report. Downstream layers consume it read-only.
type Result struct {
	Report       domain.ReconciliationReport `json:"report"`
	Users        []domain.UserRecord         `json:"users"`
	Transactions []domain.TransactionRecord  `json:"transactions"`
	Identities   []domain.VerifiedIdentity   `json:"identities"`
}

// Engine runs the batch pipeline. It holds no state between runs; every run
// recomputes everything from the raw sources.
type Engine struct {
	cfg      config.Config
	log      *zap.Logger
	verified verified.Source

	now       func() time.Time
	reference domain.Date
	runID     func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReferenceDate pins the date all activity windows are evaluated
// against; the default is the run date.
func WithReferenceDate(d domain.Date) Option {
	return func(e *Engine) { e.reference = d }
}

// WithRunID overrides run-ID generation.
func WithRunID(gen func() string) Option {
	return func(e *Engine) { e.runID = gen }
}

// New builds an Engine. The verified source may be nil when neither a
// snapshot nor a database is configured; the run then reports zero verified
// identities.
func New(cfg config.Config, log *zap.Logger, src verified.Source, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		log:      log,
		verified: src,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the full pipeline. No condition inside the run is fatal:
// a source that is missing or yields zero valid rows still produces a
// complete report with zero counts for that source.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	start := e.now()
	reference := e.reference
	if !reference.Known() {
		reference = domain.DateOf(start)
	}
	e.log.Info("starting reconciliation run",
		zap.String("reference_date", reference.String()))

	crm := e.readCRM()
	payments := e.readPayments()
	identities := e.fetchVerified(ctx)

	users := crm.Users
	transactions := payments.Transactions

	matcher := match.New(users, match.Options{
		PartialThreshold: e.cfg.Engine.PartialMatchThreshold,
	})

	outcomes := make([]match.Outcome, len(transactions))
	if err := runIndexed(ctx, e.cfg.Engine.MatchWorkers, len(transactions), func(idx int) {
		outcomes[idx] = matcher.MatchTransaction(transactions[idx])
	}); err != nil {
		return Result{}, fmt.Errorf("matching transactions: %w", err)
	}

	var (
		breakdown domain.MatchBreakdown
		unmatched []domain.TransactionRecord
		ambiguous []domain.TransactionRecord
	)
	matchedPayments := make(map[string]float64, len(users))
	for i, out := range outcomes {
		tally(&breakdown, out)
		switch {
		case out.Ambiguous:
			ambiguous = append(ambiguous, transactions[i])
		case !out.Matched():
			unmatched = append(unmatched, transactions[i])
		default:
			transactions[i].MatchedUserID = out.UserID
			// Medium-confidence matches are audit-flagged: they count
			// toward the match rate but never toward per-user totals.
			if transactions[i].CountsTowardRevenue() && !out.AuditFlag {
				matchedPayments[out.UserID] += transactions[i].Amount
			}
		}
	}

	var unmatchedIdentities []domain.VerifiedIdentity
	for i := range identities {
		out := matcher.MatchIdentity(identities[i])
		if out.Matched() {
			identities[i].MatchedUserID = out.UserID
		} else {
			unmatchedIdentities = append(unmatchedIdentities, identities[i])
		}
	}

	for i := range users {
		users[i].MatchedPayments = matchedPayments[users[i].UserID]
	}

	classifier := classify.New(e.cfg.Engine, reference)
	users = classifier.Apply(users)

	aggregator := cohort.New(classifier)
	cohorts := aggregator.Build(users)
	seasonality := aggregator.Seasonality(users)

	builderOpts := []report.Option{report.WithClock(e.now)}
	if e.runID != nil {
		builderOpts = append(builderOpts, report.WithRunID(e.runID))
	}
	builder := report.NewBuilder(classifier, e.cfg.Engine, builderOpts...)

	verifiedCounts := domain.SourceCounts{
		Source:     verified.SourceName,
		TotalRows:  len(identities),
		ParsedRows: len(identities),
	}

	rep := builder.Build(report.Input{
		Users:                 users,
		Transactions:          transactions,
		UnmatchedTransactions: unmatched,
		AmbiguousTransactions: ambiguous,
		Identities:            identities,
		UnmatchedIdentities:   unmatchedIdentities,
		Sources:               []domain.SourceCounts{crm.Counts, payments.Counts, verifiedCounts},
		Problems:              append(append([]domain.RowProblem{}, crm.Problems...), payments.Problems...),
		Matches:               breakdown,
		Cohorts:               cohorts,
		Seasonality:           seasonality,
	})

	e.log.Info("reconciliation run complete",
		zap.String("run_id", rep.RunID),
		zap.Int("users", len(users)),
		zap.Int("transactions", len(transactions)),
		zap.Int("verified_identities", len(identities)),
		zap.Float64("match_rate_percent", rep.Revenue.MatchRatePercent),
		zap.Duration("elapsed", e.now().Sub(start)))

	return Result{
		Report:       rep,
		Users:        users,
		Transactions: transactions,
		Identities:   identities,
	}, nil
}

func tally(b *domain.MatchBreakdown, out match.Outcome) {
	if out.Ambiguous {
		b.Ambiguous++
		return
	}
	switch out.Confidence {
	case match.ConfidenceCertain:
		b.Certain++
	case match.ConfidenceHigh:
		b.High++
	case match.ConfidenceMedium:
		b.Medium++
	default:
		b.None++
	}
}

func (e *Engine) readCRM() normalize.CRMResult {
	f, err := os.Open(e.cfg.Sources.CRMPath)
	if err != nil {
		e.logSourceSkip(normalize.SourceCRM, e.cfg.Sources.CRMPath, err)
		return normalize.CRMResult{Counts: domain.SourceCounts{Source: normalize.SourceCRM}}
	}
	defer f.Close()

	res, err := normalize.ReadCRM(f)
	if err != nil {
		e.logSourceSkip(normalize.SourceCRM, e.cfg.Sources.CRMPath, err)
		return normalize.CRMResult{Counts: domain.SourceCounts{Source: normalize.SourceCRM}}
	}
	return res
}

func (e *Engine) readPayments() normalize.PaymentsResult {
	f, err := os.Open(e.cfg.Sources.PaymentsPath)
	if err != nil {
		e.logSourceSkip(normalize.SourcePayments, e.cfg.Sources.PaymentsPath, err)
		return normalize.PaymentsResult{Counts: domain.SourceCounts{Source: normalize.SourcePayments}}
	}
	defer f.Close()

	res, err := normalize.ReadPayments(f)
	if err != nil {
		e.logSourceSkip(normalize.SourcePayments, e.cfg.Sources.PaymentsPath, err)
		return normalize.PaymentsResult{Counts: domain.SourceCounts{Source: normalize.SourcePayments}}
	}
	return res
}

func (e *Engine) fetchVerified(ctx context.Context) []domain.VerifiedIdentity {
	if e.verified == nil {
		return nil
	}
	identities, err := e.verified.Fetch(ctx)
	if err != nil {
		if errors.Is(err, verified.ErrNotConfigured) {
			e.log.Info("verified source not configured; cross-check skipped")
		} else {
			e.log.Warn("verified source unavailable; cross-check skipped", zap.Error(err))
		}
		return nil
	}
	return identities
}

// logSourceSkip keeps partial data availability non-fatal: a missing or
// unreadable source yields zero counts, never an aborted run.
func (e *Engine) logSourceSkip(source, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		e.log.Warn("source file not found; reporting zero rows",
			zap.String("source", source), zap.String("path", path))
		return
	}
	e.log.Warn("source unreadable; reporting zero rows",
		zap.String("source", source), zap.String("path", path), zap.Error(err))
}
