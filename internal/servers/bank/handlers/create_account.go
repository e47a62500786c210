package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type CreateAccountHandler struct {
	lg      *logging.ZapLogger
	service AccountsService
}

type AccountsService interface {
	CreateAccount(ctx context.Context, initialBalance int64) (*models.Account, error)
}

func NewCreateAccountHandler(service AccountsService, lg *logging.ZapLogger) *CreateAccountHandler {
	return &CreateAccountHandler{lg: lg, service: service}
}

func (h *CreateAccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Balance *float64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Balance == nil {
		writeError(w, http.StatusBadRequest, "balance must be a number")
		return
	}

	if *req.Balance < 0 {
		writeError(w, http.StatusBadRequest, "balance must not be negative")
		return
	}

	balance, ok := toMinorUnits(*req.Balance)
	if !ok {
		writeError(w, http.StatusBadRequest, "balance is out of range")
		return
	}

	acct, err := h.service.CreateAccount(r.Context(), balance)
	if err != nil {
		h.lg.ErrorCtx(r.Context(), "create account failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(acct))
}
