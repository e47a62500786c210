package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type TransferHandler struct {
	lg     *logging.ZapLogger
	engine TransferEngine
}

type TransferEngine interface {
	Transfer(ctx context.Context, sender int64, receiver int64, amount int64) (*models.Transaction, error)
}

func NewTransferHandler(engine TransferEngine, lg *logging.ZapLogger) *TransferHandler {
	return &TransferHandler{lg: lg, engine: engine}
}

// Transfer validates the request shape and hands the engine a positive
// minor-unit amount. Everything past this point is the engine's atomic unit.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   *int64   `json:"from"`
		To     *int64   `json:"to"`
		Amount *float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.From == nil || req.To == nil || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "from, to and amount are required")
		return
	}

	if *req.From <= 0 || *req.To <= 0 {
		writeError(w, http.StatusBadRequest, "account numbers must be positive integers")
		return
	}

	amount, ok := toMinorUnits(*req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount is out of range")
		return
	}

	if amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	transaction, err := h.engine.Transfer(r.Context(), *req.From, *req.To, amount)
	if err != nil {
		h.lg.ErrorCtx(
			r.Context(),
			"transfer failed",
			zap.Int64("sender", *req.From),
			zap.Int64("receiver", *req.To),
			zap.Error(err),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "transfer successful",
		"transaction": newTransactionResponse(transaction),
	})
}
