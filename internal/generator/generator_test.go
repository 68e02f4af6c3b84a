package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costomenu/reconcile/internal/normalize"
)

func generate(t *testing.T, cfg Config) Dataset {
	t.Helper()
	ds, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	return ds
}

func asCSV(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(rows))
	return &buf
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	cfg := Config{NumUsers: 50, NumTransactions: 100, Seed: 7}
	a := generate(t, cfg)
	b := generate(t, cfg)
	assert.Equal(t, a.CRM, b.CRM)
	assert.Equal(t, a.Payments, b.Payments)
	assert.Equal(t, a.Verified, b.Verified)
}

func TestGeneratedExportsNormalizeCleanly(t *testing.T) {
	ds := generate(t, Config{NumUsers: 80, NumTransactions: 200, Seed: 11})

	crm, err := normalize.ReadCRM(asCSV(t, ds.CRM))
	require.NoError(t, err)
	assert.Empty(t, crm.Problems)
	assert.NotEmpty(t, crm.Users)

	payments, err := normalize.ReadPayments(asCSV(t, ds.Payments))
	require.NoError(t, err)
	assert.Empty(t, payments.Problems)
	assert.NotEmpty(t, payments.Transactions)
}

func TestGenerateEmitsDuplicates(t *testing.T) {
	ds := generate(t, Config{NumUsers: 100, NumTransactions: 200, DuplicateShare: 0.5, Seed: 3})

	crm, err := normalize.ReadCRM(asCSV(t, ds.CRM))
	require.NoError(t, err)
	assert.Greater(t, crm.Counts.DuplicateRows, 0)
}
