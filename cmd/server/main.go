package main

import (
	"github.com/ledgerline/bankledger/internal/accounts"
	main_config "github.com/ledgerline/bankledger/internal/config"
	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/outbox"
	"github.com/ledgerline/bankledger/internal/reference"
	"github.com/ledgerline/bankledger/internal/repositories"
	"github.com/ledgerline/bankledger/internal/servers/bank"
	bank_handlers "github.com/ledgerline/bankledger/internal/servers/bank/handlers"
	"github.com/ledgerline/bankledger/internal/storage"
	"github.com/ledgerline/bankledger/internal/transfers"
	"go.uber.org/fx"
)

func main() {
	fx.New(CreateApp()).Run()
}

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			logging.NewZapLogger,
			logging.NewKafkaLogger,
			logging.NewKafkaErrorLogger,
			storage.NewStorage,

			// Transfer engine
			fx.Annotate(transfers.NewEngine, fx.As(new(bank_handlers.TransferEngine))),
			fx.Annotate(reference.NewGenerator, fx.As(new(transfers.ReferenceGenerator))),
			fx.Annotate(repositories.NewAccountsRepository, fx.As(new(transfers.AccountsRepository))),
			fx.Annotate(repositories.NewTransactionsRepository, fx.As(new(transfers.TransactionsRepository))),
			fx.Annotate(repositories.NewOutboxEventsRepository, fx.As(new(transfers.OutboxEventsRepository))),

			// Account provisioning
			fx.Annotate(accounts.NewService, fx.As(new(bank_handlers.AccountsService))),
			fx.Annotate(repositories.NewAccountsRepository, fx.As(new(accounts.Repository))),

			// HTTP server
			bank.NewServer,
			bank_handlers.NewCreateAccountHandler,
			bank_handlers.NewGetBalanceHandler,
			bank_handlers.NewListAccountsHandler,
			bank_handlers.NewListTransactionsHandler,
			bank_handlers.NewTransferHandler,
			fx.Annotate(repositories.NewAccountsRepository, fx.As(new(bank_handlers.BalanceRepository))),
			fx.Annotate(repositories.NewAccountsRepository, fx.As(new(bank_handlers.AccountsRepository))),
			fx.Annotate(repositories.NewTransactionsRepository, fx.As(new(bank_handlers.TransactionsRepository))),

			// Outbox daemon
			outbox.NewDaemon,
			fx.Annotate(outbox.NewWriter, fx.As(new(outbox.Publisher))),
			fx.Annotate(repositories.NewOutboxEventsRepository, fx.As(new(outbox.EventsRepository))),
		),
		fx.Supply(
			main_config.MustNewConfig(),
			outbox.MustNewConfig(),
		),
		fx.Invoke(
			startBankServer,
			startOutboxDaemon,
		),
	)
}

func startBankServer(*bank.Server)     {}
func startOutboxDaemon(*outbox.Daemon) {}
