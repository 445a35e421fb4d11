package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"ledger-core/internal/audit"
	"ledger-core/internal/auth"
	closing "ledger-core/internal/closing/domain"
	periodsapp "ledger-core/internal/periods/application"
	periods "ledger-core/internal/periods/domain"
)

const routePrefix = "/api/v1/accounting-periods"

// Handler provides accounting period HTTP endpoints.
type Handler struct {
	service     *periodsapp.PeriodService
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *periodsapp.PeriodService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("period handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// CreateRequest is the payload for opening a new period.
type CreateRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CloseRequest is the payload for closing a period.
type CloseRequest struct {
	ClosingDate string `json:"closing_date"`
	Description string `json:"description"`
}

// CloseResponse reports a successful close together with check results.
type CloseResponse struct {
	Period *periods.Period      `json:"period"`
	Checks *closing.CheckResult `json:"checks,omitempty"`
}

// ServeHTTP routes period requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == routePrefix {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if !strings.HasPrefix(r.URL.Path, routePrefix+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, routePrefix+"/")
	parts := strings.Split(rest, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]

	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 && parts[1] == "close" && r.Method == http.MethodPost {
		h.handleClose(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		http.Error(w, "end_date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	period, err := h.service.Create(r.Context(), req.Name, start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(period)
	h.logAudit(r, "period.create", period.ID, nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []*periods.Period{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	period, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(period)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request, id string) {
	var req CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	closingDate := time.Now().UTC()
	if req.ClosingDate != "" {
		parsed, err := parseDate(req.ClosingDate)
		if err != nil {
			http.Error(w, "closing_date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		closingDate = parsed
	}

	period, checks, err := h.service.RequestClose(r.Context(), id, closingDate, req.Description, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondCloseError(w, err, checks)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(CloseResponse{Period: period, Checks: checks})
	h.logAudit(r, "period.close", id, map[string]any{"closing_date": closingDate.Format(time.RFC3339)})
}

func (h *Handler) logAudit(r *http.Request, action, periodID string, metadata map[string]any) {
	if h.auditLogger == nil {
		return
	}
	var meta json.RawMessage
	if metadata != nil {
		meta, _ = json.Marshal(metadata)
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "accounting_period",
		ResourceID:   periodID,
		PeriodID:     periodID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Code: code, Message: message})
}

// blockedBody carries the failed checks back to the caller so the block
// reason is visible without a second request.
type blockedBody struct {
	Code         string               `json:"code"`
	Message      string               `json:"message"`
	FailedChecks []closing.CheckItem  `json:"failed_checks"`
	Checks       *closing.CheckResult `json:"checks,omitempty"`
}

func respondCloseError(w http.ResponseWriter, err error, checks *closing.CheckResult) {
	var blocked closing.BlockedError
	if errors.As(err, &blocked) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(blockedBody{
			Code:         "closing_blocked",
			Message:      err.Error(),
			FailedChecks: blocked.FailedChecks,
			Checks:       checks,
		})
		return
	}
	respondServiceError(w, err)
}

func respondServiceError(w http.ResponseWriter, err error) {
	var overlap periods.OverlapError
	switch {
	case errors.Is(err, periods.ErrPeriodNotFound):
		respondJSONError(w, http.StatusNotFound, "period_not_found", err.Error())
	case errors.Is(err, periods.ErrPeriodClosed):
		respondJSONError(w, http.StatusConflict, "period_closed", err.Error())
	case errors.Is(err, periods.ErrCloseInProgress):
		respondJSONError(w, http.StatusConflict, "close_in_progress", err.Error())
	case errors.As(err, &overlap):
		respondJSONError(w, http.StatusConflict, "period_overlap", err.Error())
	case errors.Is(err, periods.ErrEmptyPeriodName),
		errors.Is(err, periods.ErrInvalidDateRange):
		respondJSONError(w, http.StatusUnprocessableEntity, "invalid_period", err.Error())
	default:
		// Anything unrecognized is an infrastructure failure, not a
		// client mistake. The detail stays in the log.
		log.Printf("period handler: internal error: %v", err)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
