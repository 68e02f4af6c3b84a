package verified

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/normalize"
)

// PostgresSource queries the verified-licenses table live instead of relying
// on a CSV snapshot.
type PostgresSource struct {
	db    *sqlx.DB
	table string
}

type verifiedRow struct {
	Email       string  `db:"email"`
	FullName    *string `db:"full_name"`
	License     *string `db:"license"`
	PaidThrough *string `db:"paid_through"`
}

// NewPostgresSource connects using the provided database config.
func NewPostgresSource(cfg config.DatabaseConfig) (*PostgresSource, error) {
	if cfg.DSN == "" {
		return nil, ErrNotConfigured
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect verified database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &PostgresSource{db: db, table: cfg.Table}, nil
}

// Fetch selects all verified identities with a verified, paid status.
func (s *PostgresSource) Fetch(ctx context.Context) ([]domain.VerifiedIdentity, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("email", "full_name", "license", "paid_through").
		From(s.table).
		Where(sb.IsNotNull("email"))
	query, args := sb.Build()

	var rows []verifiedRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}

	out := make([]domain.VerifiedIdentity, 0, len(rows))
	for _, r := range rows {
		email := normalize.NormalizeEmail(r.Email)
		if email == "" {
			continue
		}
		id := domain.VerifiedIdentity{Email: email}
		if r.FullName != nil {
			id.FullName = normalize.SanitizeString(*r.FullName)
		}
		if r.License != nil {
			id.LicenseTier = normalize.ParseTier(*r.License)
		}
		if r.PaidThrough != nil {
			id.PaidThrough = normalize.ParseDate(*r.PaidThrough)
		}
		out = append(out, id)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error { return s.db.Close() }
