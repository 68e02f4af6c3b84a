package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/pipeline"
)

// Runner executes one reconciliation run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// APIHandlers serves the latest reconciliation result read-only and
// triggers new runs on demand.
type APIHandlers struct {
	logger *zap.Logger
	runner Runner

	// runMu serializes reruns; mu guards the published result.
	runMu  sync.Mutex
	mu     sync.RWMutex
	latest *pipeline.Result
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *zap.Logger, runner Runner) *APIHandlers {
	return &APIHandlers{
		logger: logger,
		runner: runner,
	}
}

// SetResult publishes a run result, typically the startup run.
func (h *APIHandlers) SetResult(res pipeline.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &res
}

func (h *APIHandlers) result() (pipeline.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return pipeline.Result{}, false
	}
	return *h.latest, true
}

func (h *APIHandlers) hasResult() bool {
	_, ok := h.result()
	return ok
}

func (h *APIHandlers) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, ok := h.result()
	if !ok {
		writeError(w, http.StatusNotFound, "no reconciliation run available yet")
		return
	}
	respondJSON(w, http.StatusOK, res.Report)
}

func (h *APIHandlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, ok := h.result()
	if !ok {
		writeError(w, http.StatusNotFound, "no reconciliation run available yet")
		return
	}

	query := r.URL.Query()
	health := query.Get("health")
	tier := query.Get("tier")

	users := make([]domain.UserRecord, 0, len(res.Users))
	for _, u := range res.Users {
		if health != "" && !strings.EqualFold(string(u.HealthState), health) {
			continue
		}
		if tier != "" && !strings.EqualFold(string(u.LicenseTier), tier) {
			continue
		}
		users = append(users, u)
	}

	respondJSON(w, http.StatusOK, usersResponse{
		Total: len(users),
		Users: users,
	})
}

func (h *APIHandlers) handleCohorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, ok := h.result()
	if !ok {
		writeError(w, http.StatusNotFound, "no reconciliation run available yet")
		return
	}
	respondJSON(w, http.StatusOK, cohortsResponse{
		Cohorts:       res.Report.Cohorts,
		CohortUnknown: res.Report.CohortUnknown,
		Seasonality:   res.Report.Seasonality,
	})
}

func (h *APIHandlers) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, ok := h.result()
	if !ok {
		writeError(w, http.StatusNotFound, "no reconciliation run available yet")
		return
	}
	respondJSON(w, http.StatusOK, unmatchedResponse{
		Transactions: res.Report.UnmatchedTransactions,
		Ambiguous:    res.Report.AmbiguousTransactions,
		Identities:   res.Report.UnmatchedIdentities,
	})
}

func (h *APIHandlers) handleRerun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if !h.runMu.TryLock() {
		writeError(w, http.StatusConflict, "a reconciliation run is already in progress")
		return
	}
	defer h.runMu.Unlock()

	res, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error("reconciliation run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reconciliation run failed")
		return
	}
	h.SetResult(res)

	respondJSON(w, http.StatusOK, rerunResponse{
		Status:      "ok",
		RunID:       res.Report.RunID,
		GeneratedAt: res.Report.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

type usersResponse struct {
	Total int                 `json:"total"`
	Users []domain.UserRecord `json:"users"`
}

type cohortsResponse struct {
	Cohorts       []domain.Cohort            `json:"cohorts"`
	CohortUnknown int                        `json:"cohortUnknown"`
	Seasonality   []domain.SeasonalitySeries `json:"seasonality"`
}

type unmatchedResponse struct {
	Transactions []domain.TransactionRecord `json:"transactions"`
	Ambiguous    []domain.TransactionRecord `json:"ambiguous"`
	Identities   []domain.VerifiedIdentity  `json:"identities"`
}

type rerunResponse struct {
	Status      string `json:"status"`
	RunID       string `json:"runId"`
	GeneratedAt string `json:"generatedAt"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
