package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/config"
	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/servers/bank/handlers"
)

type Server struct {
	cfg *config.Config
	lg  *logging.ZapLogger
	srv *http.Server
}

func NewServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	lg *logging.ZapLogger,
	createAccount *handlers.CreateAccountHandler,
	listAccounts *handlers.ListAccountsHandler,
	getBalance *handlers.GetBalanceHandler,
	listTransactions *handlers.ListTransactionsHandler,
	transfer *handlers.TransferHandler,
) *Server {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware(lg), metricsMiddleware())

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/accounts", createAccount.CreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts", listAccounts.ListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{number}/balance", getBalance.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{number}/transactions", listTransactions.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transfers", transfer.Transfer).Methods(http.MethodPost)

	router.HandleFunc("/health", health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s := &Server{
		cfg: cfg,
		lg:  lg,
		srv: &http.Server{
			Addr:         cfg.BankServerHTTPAddress,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				lg.InfoCtx(ctx, "start bank HTTP server", zap.String("address", cfg.BankServerHTTPAddress))
				go s.listen()

				return nil
			},
			OnStop: func(ctx context.Context) error {
				return s.srv.Shutdown(ctx)
			},
		},
	)

	return s
}

func (s *Server) listen() {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.lg.ErrorCtx(context.Background(), "bank HTTP server failed", zap.Error(err))
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
