package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type GetBalanceHandler struct {
	lg         *logging.ZapLogger
	repository BalanceRepository
}

type BalanceRepository interface {
	Find(ctx context.Context, number int64) (*models.Account, error)
}

func NewGetBalanceHandler(repository BalanceRepository, lg *logging.ZapLogger) *GetBalanceHandler {
	return &GetBalanceHandler{lg: lg, repository: repository}
}

func (h *GetBalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(mux.Vars(r)["number"], 10, 64)
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "account number must be a positive integer")
		return
	}

	acct, err := h.repository.Find(r.Context(), number)
	if err != nil {
		if !errors.Is(err, models.ErrAccountNotFound) {
			h.lg.ErrorCtx(r.Context(), "find account failed", zap.Error(err))
		}

		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"balance": toCurrencyUnits(acct.Balance)})
}
