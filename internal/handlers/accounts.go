package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/colemarsh/gatehouse/internal/services"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// AccountServiceInterface defines the interface for account administration
type AccountServiceInterface interface {
	GetAccount(ctx context.Context, id string) (*services.AccountResponse, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error)
	SetStatus(ctx context.Context, id, status string) (*services.AccountResponse, error)
}

// AccountHandler handles the admin-only account surface
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// SetStatusRequest represents the request body for a status change
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

// List returns a page of accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)

	accounts, err := h.service.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// Get returns a single account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Missing account ID")
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// SetStatus suspends or reactivates an account.
func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Missing account ID")
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid status")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// parseQueryInt reads an integer query parameter with a fallback default
func parseQueryInt(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
