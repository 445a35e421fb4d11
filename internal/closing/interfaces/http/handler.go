package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger-core/internal/audit"
	"ledger-core/internal/auth"
	closingapp "ledger-core/internal/closing/application"
	periods "ledger-core/internal/periods/domain"
)

// Handler runs closing checks on demand without closing the period.
type Handler struct {
	engine      *closingapp.Engine
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(engine *closingapp.Engine, auditLogger audit.Logger) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("closing handler: nil engine")
	}
	return &Handler{engine: engine, auditLogger: auditLogger}, nil
}

// RunRequest names the period to check.
type RunRequest struct {
	PeriodID string `json:"period_id"`
}

// ServeHTTP handles POST /api/v1/closing-checks.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PeriodID == "" {
		http.Error(w, "period_id required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Run(r.Context(), req.PeriodID)
	if err != nil {
		if errors.Is(err, periods.ErrPeriodNotFound) {
			http.Error(w, "period not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
	h.logAudit(r, req.PeriodID)
}

func (h *Handler) logAudit(r *http.Request, periodID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "closing.checks.run",
		ResourceType: "accounting_period",
		ResourceID:   periodID,
		PeriodID:     periodID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
