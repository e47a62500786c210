package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type ListTransactionsHandler struct {
	lg         *logging.ZapLogger
	repository TransactionsRepository
}

type TransactionsRepository interface {
	SentBy(ctx context.Context, number int64) ([]*models.Transaction, error)
}

func NewListTransactionsHandler(repository TransactionsRepository, lg *logging.ZapLogger) *ListTransactionsHandler {
	return &ListTransactionsHandler{lg: lg, repository: repository}
}

func (h *ListTransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(mux.Vars(r)["number"], 10, 64)
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "account number must be a positive integer")
		return
	}

	transactions, err := h.repository.SentBy(r.Context(), number)
	if err != nil {
		h.lg.ErrorCtx(r.Context(), "list transactions failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		out = append(out, newTransactionResponse(transaction))
	}

	writeJSON(w, http.StatusOK, out)
}
