package transfers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bankledger/internal/config"
	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
	"github.com/ledgerline/bankledger/internal/reference"
)

// fakeLedger implements the engine's repository interfaces in memory. Writes
// are staged per atomic unit and applied on commit; FindForUpdateTX takes a
// per-account lock held until commit or rollback, mirroring the row lock the
// real store provides.
type fakeLedger struct {
	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	balances map[int64]int64
	log      []*models.Transaction
	refs     map[string]bool
	events   []*models.TransactionEvent

	commitErr error // injected fault, returned on the next commit
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	l := &fakeLedger{
		locks:    map[int64]*sync.Mutex{},
		balances: map[int64]int64{},
		refs:     map[string]bool{},
	}
	for number, balance := range balances {
		l.balances[number] = balance
	}

	return l
}

type fakeTx struct {
	pgx.Tx
	ledger *fakeLedger
	staged map[int64]int64
	log    []*models.Transaction
	events []*models.TransactionEvent
	held   []int64
	done   bool
}

func (l *fakeLedger) BeginTX(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return &fakeTx{ledger: l, staged: map[int64]int64{}}, nil
}

func (l *fakeLedger) lockFor(number int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[number]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[number] = lock
	}

	return lock
}

func (l *fakeLedger) FindForUpdateTX(ctx context.Context, tx pgx.Tx, number int64) (*models.Account, error) {
	t := tx.(*fakeTx)
	l.lockFor(number).Lock()
	t.held = append(t.held, number)

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[number]
	if !ok {
		return nil, nil
	}

	return &models.Account{Number: number, Balance: balance}, nil
}

func (t *fakeTx) read(number int64) (int64, bool) {
	if balance, ok := t.staged[number]; ok {
		return balance, true
	}

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	balance, ok := t.ledger.balances[number]

	return balance, ok
}

func (l *fakeLedger) DecrementTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error {
	t := tx.(*fakeTx)
	balance, ok := t.read(number)
	if !ok || balance < amount {
		return models.ErrInsufficientFunds
	}

	t.staged[number] = balance - amount

	return nil
}

func (l *fakeLedger) IncrementOrCreateTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error {
	t := tx.(*fakeTx)
	balance, _ := t.read(number)
	t.staged[number] = balance + amount

	return nil
}

type fakeTransactionLog struct{ ledger *fakeLedger }

func (f *fakeTransactionLog) CreateTX(ctx context.Context, in *models.Transaction, tx pgx.Tx) error {
	t := tx.(*fakeTx)

	f.ledger.mu.Lock()
	seen := f.ledger.refs[in.Reference]
	f.ledger.mu.Unlock()

	for _, staged := range t.log {
		if staged.Reference == in.Reference {
			seen = true
		}
	}
	if seen {
		return errors.Join(models.ErrCommitConflict, errors.New("duplicate key value violates unique constraint"))
	}

	t.log = append(t.log, in)

	return nil
}

type fakeOutbox struct{}

func (f *fakeOutbox) CreateTX(ctx context.Context, in *models.TransactionEvent, tx pgx.Tx) error {
	t := tx.(*fakeTx)
	t.events = append(t.events, in)

	return nil
}

func (l *fakeLedger) CommitTX(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*fakeTx)
	if t.done {
		return errors.New("atomic unit already closed")
	}

	if l.commitErr != nil {
		err := l.commitErr
		l.commitErr = nil
		t.close()

		return err
	}

	l.mu.Lock()
	for number, balance := range t.staged {
		l.balances[number] = balance
	}
	l.log = append(l.log, t.log...)
	for _, entry := range t.log {
		l.refs[entry.Reference] = true
	}
	l.events = append(l.events, t.events...)
	l.mu.Unlock()

	t.close()

	return nil
}

func (l *fakeLedger) RollbackTX(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*fakeTx)
	if t.done {
		return nil
	}

	t.close()

	return nil
}

func (t *fakeTx) close() {
	for _, number := range t.held {
		t.ledger.lockFor(number).Unlock()
	}
	t.held = nil
	t.done = true
}

func (l *fakeLedger) balance(number int64) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[number]

	return balance, ok
}

func (l *fakeLedger) total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sum int64
	for _, balance := range l.balances {
		sum += balance
	}

	return sum
}

type fixedGenerator struct{ ref string }

func (g *fixedGenerator) Generate() (string, error) { return g.ref, nil }

func newTestEngine(t *testing.T, ledger *fakeLedger, refs ReferenceGenerator) *Engine {
	t.Helper()

	lg, err := logging.NewZapLogger(&config.Config{LogLevel: 2})
	require.NoError(t, err)

	if refs == nil {
		refs = reference.NewGenerator()
	}

	return NewEngine(ledger, &fakeTransactionLog{ledger: ledger}, &fakeOutbox{}, refs, lg)
}

func TestTransferMovesFundsAndLogsTransaction(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000})
	engine := newTestEngine(t, ledger, nil)

	before := ledger.total()

	transaction, err := engine.Transfer(context.Background(), 1001, 2002, 3000)
	require.NoError(t, err)

	sender, _ := ledger.balance(1001)
	assert.Equal(t, int64(7000), sender)

	receiver, ok := ledger.balance(2002)
	require.True(t, ok, "receiver account should be created on first credit")
	assert.Equal(t, int64(3000), receiver)

	assert.Equal(t, before, ledger.total(), "transfers must conserve the total of all balances")

	require.Len(t, ledger.log, 1)
	logged := ledger.log[0]
	assert.Equal(t, transaction.Reference, logged.Reference)
	assert.Len(t, logged.Reference, reference.Length)
	assert.Equal(t, int64(1001), logged.SenderNumber)
	assert.Equal(t, int64(2002), logged.ReceiverNumber)
	assert.Equal(t, int64(3000), logged.Amount)
	assert.Equal(t, "Transfer", logged.Description)
	assert.WithinDuration(t, time.Now().UTC(), logged.CreatedAt, time.Minute)

	require.Len(t, ledger.events, 1)
	assert.Equal(t, models.TransactionEventNewState, ledger.events[0].State)
	assert.Equal(t, transaction.Reference, ledger.events[0].Meta.Reference)
}

func TestTransferInsufficientFunds(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 1000, 2002: 500})
	engine := newTestEngine(t, ledger, nil)

	_, err := engine.Transfer(context.Background(), 1001, 2002, 5000)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	sender, _ := ledger.balance(1001)
	receiver, _ := ledger.balance(2002)
	assert.Equal(t, int64(1000), sender)
	assert.Equal(t, int64(500), receiver)
	assert.Empty(t, ledger.log)
	assert.Empty(t, ledger.events)
}

func TestTransferUnknownSender(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{2002: 500})
	engine := newTestEngine(t, ledger, nil)

	_, err := engine.Transfer(context.Background(), 9999, 2002, 100)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Empty(t, ledger.log)
}

func TestTransferRollsBackOnCommitFailure(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000})
	ledger.commitErr = errors.Join(models.ErrStoreUnavailable, errors.New("connection reset"))
	engine := newTestEngine(t, ledger, nil)

	_, err := engine.Transfer(context.Background(), 1001, 2002, 3000)
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	sender, _ := ledger.balance(1001)
	assert.Equal(t, int64(10000), sender)

	_, receiverExists := ledger.balance(2002)
	assert.False(t, receiverExists, "aborted transfer must not create the receiver")
	assert.Empty(t, ledger.log)
	assert.Empty(t, ledger.events)
}

func TestTransferReferenceCollision(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000})
	ledger.refs["COLLIDED"] = true
	engine := newTestEngine(t, ledger, &fixedGenerator{ref: "COLLIDED"})

	_, err := engine.Transfer(context.Background(), 1001, 2002, 3000)
	require.ErrorIs(t, err, models.ErrCommitConflict)

	sender, _ := ledger.balance(1001)
	assert.Equal(t, int64(10000), sender)
	assert.Empty(t, ledger.log)
}

func TestTransferIsNotIdempotent(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000, 2002: 0})
	engine := newTestEngine(t, ledger, nil)

	first, err := engine.Transfer(context.Background(), 1001, 2002, 2000)
	require.NoError(t, err)
	second, err := engine.Transfer(context.Background(), 1001, 2002, 2000)
	require.NoError(t, err)

	assert.NotEqual(t, first.Reference, second.Reference)

	sender, _ := ledger.balance(1001)
	receiver, _ := ledger.balance(2002)
	assert.Equal(t, int64(6000), sender, "identical resubmission deducts a second time")
	assert.Equal(t, int64(4000), receiver)
	assert.Len(t, ledger.log, 2)
}

func TestSelfTransferIsLoggedNoOp(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000})
	engine := newTestEngine(t, ledger, nil)

	transaction, err := engine.Transfer(context.Background(), 1001, 1001, 2500)
	require.NoError(t, err)

	balance, _ := ledger.balance(1001)
	assert.Equal(t, int64(10000), balance, "self-transfer nets to a no-op")
	require.Len(t, ledger.log, 1)
	assert.Equal(t, transaction.Reference, ledger.log[0].Reference)
}

func TestSelfTransferStillRequiresFunds(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 1000})
	engine := newTestEngine(t, ledger, nil)

	_, err := engine.Transfer(context.Background(), 1001, 1001, 2500)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Empty(t, ledger.log)
}

func TestConcurrentTransfersFromOneSender(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1001: 10000})
	engine := newTestEngine(t, ledger, nil)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, receiver := range []int64{2002, 3003} {
		wg.Add(1)
		go func(receiver int64) {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), 1001, receiver, 6000)
			errs <- err
		}(receiver)
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, models.ErrInsufficientFunds)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of two 60.00 transfers from a 100.00 balance must fail")

	sender, _ := ledger.balance(1001)
	assert.Equal(t, int64(4000), sender)
	assert.Len(t, ledger.log, 1)
}
