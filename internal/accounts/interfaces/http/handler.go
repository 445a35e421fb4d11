package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	accountsapp "ledger-core/internal/accounts/application"
	accounts "ledger-core/internal/accounts/domain"
)

const routePrefix = "/api/v1/accounts"

// Handler serves chart-of-accounts queries.
type Handler struct {
	service *accountsapp.ChartService
}

// NewHandler constructs a handler.
func NewHandler(service *accountsapp.ChartService) (*Handler, error) {
	if service == nil {
		return nil, errors.New("chart handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP routes chart requests. The tree is browsed level by level:
// listing without parent_id returns group roots.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == routePrefix {
		h.handleList(w, r)
		return
	}
	if !strings.HasPrefix(r.URL.Path, routePrefix+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, routePrefix+"/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleGet(w, r, id)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parent_id")
	level := accounts.Level(r.URL.Query().Get("level"))

	list, err := h.service.ChildrenOf(r.Context(), parentID, level)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []accounts.Account{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, accounts.ErrInvalidAccountLevel):
		http.Error(w, "invalid level", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
