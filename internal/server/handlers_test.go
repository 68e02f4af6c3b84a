package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/pipeline"
)

type stubRunner struct {
	result pipeline.Result
	err    error
	calls  int
}

func (s *stubRunner) Run(ctx context.Context) (pipeline.Result, error) {
	s.calls++
	return s.result, s.err
}

func testResult() pipeline.Result {
	return pipeline.Result{
		Report: domain.ReconciliationReport{
			SchemaVersion: domain.ReportSchemaVersion,
			RunID:         "run-1",
			UnmatchedTransactions: []domain.TransactionRecord{
				{TxID: "TX-9", Amount: 12.5, Status: domain.TxPaid},
			},
		},
		Users: []domain.UserRecord{
			{UserID: "u-1", LicenseTier: domain.TierBeginner, HealthState: domain.HealthActive},
			{UserID: "u-2", LicenseTier: domain.TierExpert, HealthState: domain.HealthDormant},
		},
	}
}

func newTestRouter(runner Runner, seed *pipeline.Result) http.Handler {
	api := NewAPIHandlers(zap.NewNop(), runner)
	if seed != nil {
		api.SetResult(*seed)
	}
	return NewRouter(zap.NewNop(), RouterDependencies{API: api})
}

func TestHandleReportBeforeFirstRun(t *testing.T) {
	router := newTestRouter(&stubRunner{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReport(t *testing.T) {
	seed := testResult()
	router := newTestRouter(&stubRunner{}, &seed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.ReconciliationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
}

func TestHandleUsersFiltersByHealth(t *testing.T) {
	seed := testResult()
	router := newTestRouter(&stubRunner{}, &seed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users?health=dormant", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp usersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "u-2", resp.Users[0].UserID)
}

func TestHandleUnmatched(t *testing.T) {
	seed := testResult()
	router := newTestRouter(&stubRunner{}, &seed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unmatched", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp unmatchedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "TX-9", resp.Transactions[0].TxID)
}

func TestHandleRerunPublishesNewResult(t *testing.T) {
	runner := &stubRunner{result: testResult()}
	router := newTestRouter(runner, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rerun", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRerunFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("boom")}
	router := newTestRouter(runner, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rerun", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRerunRejectsGet(t *testing.T) {
	router := newTestRouter(&stubRunner{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rerun", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	seed := testResult()
	router := newTestRouter(&stubRunner{}, &seed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, true, payload["hasReport"])
}
