package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teltrip/internal/core"
	"teltrip/internal/types"
)

// AccountLister lists the reseller accounts for the dashboard selector.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]types.Account, error)
}

// AccountsResponse is the payload of GET /api/accounts.
type AccountsResponse struct {
	Accounts []types.Account `json:"accounts"`
}

// AccountsHandler serves the account listing.
type AccountsHandler struct {
	lister AccountLister
	logger *slog.Logger
}

// NewAccountsHandler creates an AccountsHandler.
func NewAccountsHandler(lister AccountLister, logger *slog.Logger) *AccountsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountsHandler{lister: lister, logger: logger}
}

// RegisterRoutes mounts the accounts endpoint.
func (h *AccountsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts", h.HandleList)
}

// HandleList returns every account visible to the configured OCS token.
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.lister.ListAccounts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "account listing failed", "error", err)
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, AccountsResponse{Accounts: accounts})
}
