package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
)

const crmFixture = `User id,Fullname,Email,Company,License,ExpirationDate,License status,Last activity date,Recipe count,Ingredients count,Menus count,Distributors count,Registration date,Total payments amount
U-A,Alice Wonder,a@x.com,,Beginner,,Active,15/06/2026,5,0,0,0,10/01/2026,50
U-B,Bob Builder,b@x.com,,Professional,,Active,20/06/2026,0,0,0,0,05/02/2026,0
U-C,Carol Smith,N/A,,Beginner,,Expired,,0,0,0,0,,0
`

const paymentsFixture = `date,amount,transaction id,customer,email,status
01/06/2026,20,TX-1,Alice Wonder,a@x.com,paid
02/06/2026,15,TX-2,Zed Nobody,unmatched@y.com,paid
`

type stubVerified struct {
	identities []domain.VerifiedIdentity
	err        error
}

func (s *stubVerified) Fetch(ctx context.Context) ([]domain.VerifiedIdentity, error) {
	return s.identities, s.err
}

func (s *stubVerified) Close() error { return nil }

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		Sources: config.SourcesConfig{
			CRMPath:      writeFixture(t, dir, "crm.csv", crmFixture),
			PaymentsPath: writeFixture(t, dir, "payments.csv", paymentsFixture),
		},
		Engine: config.EngineConfig{
			DormancyThresholdDays: 30,
			StaleThresholdDays:    90,
			PartialMatchThreshold: 0.5,
			UpsellRecipeCeiling:   30,
			MatchWorkers:          4,
		},
	}
}

func testEngine(t *testing.T, cfg config.Config) *Engine {
	return New(cfg, zap.NewNop(), &stubVerified{},
		WithClock(func() time.Time { return time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC) }),
		WithRunID(func() string { return "run-test" }),
	)
}

func TestRunReconcilesSources(t *testing.T) {
	e := testEngine(t, testConfig(t))

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Users, 3)
	byID := make(map[string]domain.UserRecord, len(res.Users))
	for _, u := range res.Users {
		byID[u.UserID] = u
	}

	// TX-1 matches Alice by exact email; the two payment figures stay side
	// by side, never summed.
	alice := byID["U-A"]
	assert.Equal(t, 50.0, alice.CRMStatedPayments)
	assert.Equal(t, 20.0, alice.MatchedPayments)

	// TX-2 is unmatched: gross revenue only, no per-user total.
	assert.Equal(t, 0.0, byID["U-B"].MatchedPayments)
	assert.Equal(t, 35.0, res.Report.Revenue.GrossTransactionTotal)
	assert.Equal(t, 20.0, res.Report.Revenue.MatchedToUserTotal)
	assert.Equal(t, 15.0, res.Report.Revenue.UnmatchedTotal)
	assert.Equal(t, 50.0, res.Report.Revenue.MatchRatePercent)

	require.Len(t, res.Report.UnmatchedTransactions, 1)
	assert.Equal(t, "TX-2", res.Report.UnmatchedTransactions[0].TxID)

	assert.Equal(t, 1, res.Report.Matches.Certain)
	assert.Equal(t, 1, res.Report.Matches.None)
}

func TestRunClassifiesEveryUser(t *testing.T) {
	e := testEngine(t, testConfig(t))

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	for _, u := range res.Users {
		assert.NotEmpty(t, u.HealthState, "user %s", u.UserID)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	run := func() Result {
		res, err := testEngine(t, cfg).Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()

	// Identical inputs yield byte-identical output; RunID and GeneratedAt
	// are pinned by the test options.
	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj))
}

func TestRunSurvivesMissingSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.CRMPath = filepath.Join(t.TempDir(), "missing.csv")

	res, err := testEngine(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Users)
	require.Len(t, res.Report.Sources, 3)
	assert.Equal(t, 0, res.Report.Sources[0].ParsedRows)
	assert.Equal(t, 2, res.Report.Sources[1].ParsedRows)
	assert.Equal(t, 2, len(res.Report.UnmatchedTransactions))
}

func TestRunCrossChecksVerifiedIdentities(t *testing.T) {
	cfg := testConfig(t)
	src := &stubVerified{identities: []domain.VerifiedIdentity{
		{Email: "b@x.com", FullName: "Bob Builder", LicenseTier: domain.TierProfessional},
		{Email: "ghost@x.com", FullName: "Ghost User"},
	}}
	e := New(cfg, zap.NewNop(), src,
		WithClock(func() time.Time { return time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC) }),
	)

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Identities, 2)
	assert.Equal(t, "U-B", res.Identities[0].MatchedUserID)
	require.Len(t, res.Report.UnmatchedIdentities, 1)
	assert.Equal(t, "ghost@x.com", res.Report.UnmatchedIdentities[0].Email)
	assert.Equal(t, 2, res.Report.ActiveCounts.DBVerifiedPaid)
}

func TestRunHonorsReferenceDateOverride(t *testing.T) {
	cfg := testConfig(t)
	e := New(cfg, zap.NewNop(), &stubVerified{},
		WithReferenceDate(domain.NewDate(2027, time.January, 1)),
	)

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2027-01-01", res.Report.ReferenceDate.String())
	// Six months past every activity date: strict-active drops to zero.
	assert.Equal(t, 0, res.Report.ActiveCounts.StrictActivity)
	assert.Equal(t, 2, res.Report.ActiveCounts.CRMLicenseActive)
}
