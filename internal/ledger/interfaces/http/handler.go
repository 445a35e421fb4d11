package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	accounts "ledger-core/internal/accounts/domain"
	"ledger-core/internal/audit"
	"ledger-core/internal/auth"
	ledgerapp "ledger-core/internal/ledger/application"
	ledger "ledger-core/internal/ledger/domain"
	periods "ledger-core/internal/periods/domain"
)

const routePrefix = "/api/v1/journal-entries"

// Handler provides journal document HTTP endpoints.
type Handler struct {
	service     *ledgerapp.PosterService
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *ledgerapp.PosterService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("journal handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// LineRequest is one journal line in a draft payload.
type LineRequest struct {
	AccountID       string          `json:"account_id"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description"`
	ForeignAmount   decimal.Decimal `json:"foreign_amount"`
	ForeignCurrency string          `json:"foreign_currency"`
}

// DraftRequest is the create/update payload for a journal document.
type DraftRequest struct {
	Number       string          `json:"number"`
	Date         string          `json:"date"`
	Type         string          `json:"type"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Description  string          `json:"description"`
	PeriodID     string          `json:"period_id"`
	Lines        []LineRequest   `json:"lines"`
}

// ReverseRequest is the payload for reversing a posted document.
type ReverseRequest struct {
	Number      string `json:"number"`
	Date        string `json:"date"`
	PeriodID    string `json:"period_id"`
	Description string `json:"description"`
}

// ServeHTTP routes journal document requests.
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

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "post":
			h.handlePost(w, r, id)
		case "cancel":
			h.handleCancel(w, r, id)
		case "reverse":
			h.handleReverse(w, r, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	doc, err := h.service.CreateDraft(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(doc)
	h.logAudit(r, "journal.draft.create", doc.ID, doc.PeriodID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	input, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	doc, err := h.service.UpdateDraft(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
	h.logAudit(r, "journal.draft.update", doc.ID, doc.PeriodID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		http.Error(w, "period_id required", http.StatusBadRequest)
		return
	}
	status := ledger.DocumentStatus(r.URL.Query().Get("status"))
	list, err := h.service.ListByPeriod(r.Context(), periodID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []*ledger.JournalDocument{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "journal.draft.delete", id, "")
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.service.Post(r.Context(), id, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
	h.logAudit(r, "journal.post", doc.ID, doc.PeriodID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
	h.logAudit(r, "journal.cancel", doc.ID, doc.PeriodID)
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request, id string) {
	var req ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	input := ledgerapp.ReverseInput{
		Number:      req.Number,
		PeriodID:    req.PeriodID,
		Description: req.Description,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.Date = date
	}
	doc, err := h.service.Reverse(r.Context(), id, input, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(doc)
	h.logAudit(r, "journal.reverse", doc.ID, doc.PeriodID)
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (ledgerapp.DraftInput, bool) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return ledgerapp.DraftInput{}, false
	}
	input := ledgerapp.DraftInput{
		Number:       req.Number,
		Type:         ledger.DocumentType(req.Type),
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
		Description:  req.Description,
		PeriodID:     req.PeriodID,
	}
	if req.Date == "" {
		http.Error(w, "date required", http.StatusBadRequest)
		return ledgerapp.DraftInput{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, "date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
		return ledgerapp.DraftInput{}, false
	}
	input.Date = date
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, ledgerapp.LineInput{
			AccountID:       line.AccountID,
			Debit:           line.Debit,
			Credit:          line.Credit,
			Description:     line.Description,
			ForeignAmount:   line.ForeignAmount,
			ForeignCurrency: line.ForeignCurrency,
		})
	}
	return input, true
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

func (h *Handler) logAudit(r *http.Request, action, documentID, periodID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "journal_document",
		ResourceID:   documentID,
		PeriodID:     periodID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
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

func respondServiceError(w http.ResponseWriter, err error) {
	var unbalanced ledger.UnbalancedEntryError
	var emptyLine ledger.EmptyLineError
	var badState ledger.InvalidStateTransitionError
	var notPostable accounts.NotPostableError
	switch {
	case errors.Is(err, ledger.ErrDocumentNotFound):
		respondJSONError(w, http.StatusNotFound, "document_not_found", err.Error())
	case errors.Is(err, accounts.ErrAccountNotFound):
		respondJSONError(w, http.StatusUnprocessableEntity, "account_not_found", err.Error())
	case errors.Is(err, periods.ErrPeriodNotFound):
		respondJSONError(w, http.StatusUnprocessableEntity, "period_not_found", err.Error())
	case errors.Is(err, periods.ErrPeriodClosed):
		respondJSONError(w, http.StatusConflict, "period_closed", err.Error())
	case errors.Is(err, periods.ErrCloseInProgress):
		respondJSONError(w, http.StatusConflict, "close_in_progress", err.Error())
	case errors.Is(err, periods.ErrDateOutsidePeriod):
		respondJSONError(w, http.StatusUnprocessableEntity, "date_outside_period", err.Error())
	case errors.As(err, &unbalanced):
		respondJSONError(w, http.StatusUnprocessableEntity, "unbalanced", err.Error())
	case errors.As(err, &emptyLine):
		respondJSONError(w, http.StatusUnprocessableEntity, "empty_line", err.Error())
	case errors.As(err, &badState):
		respondJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.As(err, &notPostable):
		respondJSONError(w, http.StatusUnprocessableEntity, "account_not_postable", err.Error())
	case errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, ledger.ErrBothSides),
		errors.Is(err, ledger.ErrInvalidExchangeRate):
		respondJSONError(w, http.StatusUnprocessableEntity, "invalid_document", err.Error())
	default:
		// Anything unrecognized is an infrastructure failure, not a
		// client mistake. The detail stays in the log.
		log.Printf("journal handler: internal error: %v", err)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
