package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type ListAccountsHandler struct {
	lg         *logging.ZapLogger
	repository AccountsRepository
}

type AccountsRepository interface {
	All(ctx context.Context) ([]*models.Account, error)
}

func NewListAccountsHandler(repository AccountsRepository, lg *logging.ZapLogger) *ListAccountsHandler {
	return &ListAccountsHandler{lg: lg, repository: repository}
}

func (h *ListAccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repository.All(r.Context())
	if err != nil {
		h.lg.ErrorCtx(r.Context(), "list accounts failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, acct := range accounts {
		out = append(out, newAccountResponse(acct))
	}

	writeJSON(w, http.StatusOK, out)
}
