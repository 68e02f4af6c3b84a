package verified

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/normalize"
)

// CSVSource reads the verified-licenses table from a CSV snapshot.
type CSVSource struct {
	path string
}

// NewCSVSource builds a snapshot-backed source.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Fetch parses the snapshot. Rows without a usable email are skipped: the
// table's sole purpose is cross-checking identities, and email is its key.
func (s *CSVSource) Fetch(ctx context.Context) ([]domain.VerifiedIdentity, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open verified snapshot: %w", err)
	}
	defer f.Close()
	return ParseSnapshot(f)
}

// Close implements Source; a snapshot has nothing to release.
func (s *CSVSource) Close() error { return nil }

// ParseSnapshot reads verified identities from CSV content with columns
// email, full name, license, paid through (header-driven, order irrelevant).
func ParseSnapshot(r io.Reader) ([]domain.VerifiedIdentity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse verified snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[normalize.SanitizeString(h)] = i
	}
	field := func(row []string, names ...string) string {
		for _, n := range names {
			if idx, ok := cols[n]; ok && idx < len(row) {
				return row[idx]
			}
		}
		return ""
	}

	var out []domain.VerifiedIdentity
	for _, row := range records[1:] {
		email := normalize.NormalizeEmail(field(row, "email", "Email", "Email_Clean"))
		if email == "" {
			continue
		}
		out = append(out, domain.VerifiedIdentity{
			Email:       email,
			FullName:    normalize.SanitizeString(field(row, "full name", "Fullname", "name")),
			LicenseTier: normalize.ParseTier(field(row, "license", "License")),
			PaidThrough: normalize.ParseDate(field(row, "paid through", "PaidThrough", "ExpirationDate")),
		})
	}
	return out, nil
}
