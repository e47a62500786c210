package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/ledgerline/bankledger/internal/models"
)

type accountResponse struct {
	AccountNumber int64     `json:"account_number"`
	Balance       float64   `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

type transactionResponse struct {
	Reference           string    `json:"reference"`
	SenderAccount       int64     `json:"sender_account"`
	ReceiverAccount     int64     `json:"receiver_account"`
	Amount              float64   `json:"amount"`
	TransferDescription string    `json:"transfer_description"`
	CreatedAt           time.Time `json:"created_at"`
}

func newAccountResponse(in *models.Account) accountResponse {
	return accountResponse{
		AccountNumber: in.Number,
		Balance:       toCurrencyUnits(in.Balance),
		CreatedAt:     in.CreatedAt,
	}
}

func newTransactionResponse(in *models.Transaction) transactionResponse {
	return transactionResponse{
		Reference:           in.Reference,
		SenderAccount:       in.SenderNumber,
		ReceiverAccount:     in.ReceiverNumber,
		Amount:              toCurrencyUnits(in.Amount),
		TransferDescription: in.Description,
		CreatedAt:           in.CreatedAt,
	}
}

// Balances live as int64 minor units; JSON speaks currency units.
// Values whose minor-unit form does not fit int64 are reported as invalid:
// converting such floats is implementation-defined.
func toMinorUnits(v float64) (int64, bool) {
	if math.IsNaN(v) || v > math.MaxInt64/100 || v < math.MinInt64/100 {
		return 0, false
	}

	return int64(math.Round(v * 100)), true
}

func toCurrencyUnits(v int64) float64 {
	return float64(v) / 100
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels to status codes. Only the sentinel
// text reaches the caller; wrapped store detail stays in the logs.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, sentinel := range []struct {
		err  error
		code int
	}{
		{models.ErrAccountNotFound, http.StatusNotFound},
		{models.ErrInsufficientFunds, http.StatusConflict},
		{models.ErrDuplicateAccount, http.StatusConflict},
		{models.ErrCommitConflict, http.StatusConflict},
		{models.ErrStoreUnavailable, http.StatusServiceUnavailable},
	} {
		if errors.Is(err, sentinel.err) {
			writeError(w, sentinel.code, sentinel.err.Error())
			return
		}
	}

	writeError(w, http.StatusInternalServerError, "internal error")
}
