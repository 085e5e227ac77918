//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"sodai-platform/internal/domain"
	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
	"sodai-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// memAccountRepo is a small in-memory implementation used by unit tests.
// DeductCredits is atomic under the mutex, mirroring the conditional
// UPDATE of the real repository.
type memAccountRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Account
	saveErr error // used by tests to simulate save failures
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{store: make(map[string]*model.Account)}
}

func (m *memAccountRepo) Save(ctx context.Context, _ repository.Tx, a *model.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *memAccountRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccountRepo) DeductCredits(ctx context.Context, _ repository.Tx, id string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok || a.Credits < amount {
		return false, nil
	}
	a.Credits -= amount
	a.UpdatedAt = time.Now()
	return true, nil
}

func (m *memAccountRepo) AddCredits(ctx context.Context, _ repository.Tx, id string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Credits += amount
	a.UpdatedAt = time.Now()
	return nil
}

func (m *memAccountRepo) CountAccounts(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *memAccountRepo) snapshot() map[string]model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Account, len(m.store))
	for id, a := range m.store {
		snap[id] = *a
	}
	return snap
}

func (m *memAccountRepo) restore(snap map[string]model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*model.Account, len(snap))
	for id, a := range snap {
		cp := a
		m.store[id] = &cp
	}
}

// memTransactionRepo enforces the (account, payment id) uniqueness the
// real table backs with a partial unique index. findMisses makes the next
// N duplicate lookups come up empty, the way a check sees nothing when a
// concurrent transaction with the same key has not committed yet.
type memTransactionRepo struct {
	mu         sync.Mutex
	entries    []*model.Transaction
	findMisses int
}

func newMemTransactionRepo() *memTransactionRepo { return &memTransactionRepo{} }

func (m *memTransactionRepo) Append(ctx context.Context, _ repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.PaymentID != "" {
		for _, e := range m.entries {
			if e.AccountID == t.AccountID && e.PaymentID == t.PaymentID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *t
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memTransactionRepo) FindByPaymentID(ctx context.Context, _ repository.Tx, accountID, paymentID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findMisses > 0 {
		m.findMisses--
		return nil, domain.ErrNotFound
	}
	for _, e := range m.entries {
		if e.AccountID == accountID && e.PaymentID == paymentID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTransactionRepo) ListByAccount(ctx context.Context, _ repository.Tx, accountID string, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID != accountID {
			continue
		}
		cp := *m.entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memTransactionRepo) SumByAccount(ctx context.Context, _ repository.Tx, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum, nil
}

// snapshot and restore back the tx manager's rollback; the log is
// append-only, so undoing a transaction is a truncation.
func (m *memTransactionRepo) snapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memTransactionRepo) restore(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < len(m.entries) {
		m.entries = m.entries[:n]
	}
}

func (m *memTransactionRepo) countByAccount(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n
}

// memSessionRepo mirrors the one-terminal-transition guarantee of the
// real store: Mark* only applies while the session is still pending.
type memSessionRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentSession // by token
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[string]*model.PaymentSession)}
}

func (m *memSessionRepo) Save(ctx context.Context, _ repository.Tx, s *model.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.Token] = &cp
	return nil
}

func (m *memSessionRepo) FindByToken(ctx context.Context, _ repository.Tx, token string) (*model.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) MarkCompleted(ctx context.Context, _ repository.Tx, token, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[token]
	if !ok || s.Status != model.SessionPending {
		return false, nil
	}
	s.Status = model.SessionCompleted
	s.PaymentID = paymentID
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSessionRepo) MarkFailed(ctx context.Context, _ repository.Tx, token, errorMessage string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[token]
	if !ok || s.Status != model.SessionPending {
		return false, nil
	}
	s.Status = model.SessionFailed
	s.ErrorMessage = errorMessage
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSessionRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentSession
	for _, s := range m.store {
		if s.Status == model.SessionPending && s.CreatedAt.Before(olderThan) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// mockTxManager runs transactions one at a time over the mem repos and
// undoes their writes when the function fails, matching the rollback the
// real manager performs. failTimes lets tests simulate transient storage
// failures for the retry path.
type mockTxManager struct {
	mu        sync.Mutex
	accounts  *memAccountRepo
	entries   *memTransactionRepo
	failTimes int
	calls     int
}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.calls++
	if m.failTimes > 0 {
		m.failTimes--
		m.mu.Unlock()
		return errors.New("connection reset by peer")
	}
	defer m.mu.Unlock()

	var accSnap map[string]model.Account
	var entSnap int
	if m.accounts != nil {
		accSnap = m.accounts.snapshot()
	}
	if m.entries != nil {
		entSnap = m.entries.snapshot()
	}
	if err := fn(ctx, nil); err != nil {
		if m.accounts != nil {
			m.accounts.restore(accSnap)
		}
		if m.entries != nil {
			m.entries.restore(entSnap)
		}
		return err
	}
	return nil
}

func (m *mockTxManager) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockGateway exposes overridable Func fields and call counters.
type mockGateway struct {
	mu            sync.Mutex
	InitFunc      func(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error)
	RetrieveFunc  func(ctx context.Context, token string) (adapter.CheckoutResult, error)
	initCalls     int
	retrieveCalls int
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) InitializeCheckout(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutSession, error) {
	g.mu.Lock()
	g.initCalls++
	g.mu.Unlock()
	if g.InitFunc != nil {
		return g.InitFunc(ctx, req)
	}
	return adapter.CheckoutSession{Token: "tok-1", CheckoutFormURL: "https://pay.example/form"}, nil
}

func (g *mockGateway) RetrieveCheckout(ctx context.Context, token string) (adapter.CheckoutResult, error) {
	g.mu.Lock()
	g.retrieveCalls++
	g.mu.Unlock()
	if g.RetrieveFunc != nil {
		return g.RetrieveFunc(ctx, token)
	}
	return adapter.CheckoutResult{Success: true, PaymentStatus: "SUCCESS", PaymentID: "pay-1"}, nil
}

func (g *mockGateway) retrieves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.retrieveCalls
}

// noopLocker always grants the lock so settlement tests exercise the
// store-level guards.
type noopLocker struct{}

func (noopLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "lock-token", nil
}
func (noopLocker) Unlock(ctx context.Context, key, token string) error { return nil }

// mockPublisher records balance events.
type mockPublisher struct {
	mu     sync.Mutex
	events []adapter.BalanceEvent
}

func (p *mockPublisher) PublishBalance(ctx context.Context, ev adapter.BalanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// mockCopywriter and mockVideoGen drive the generation tests.
type mockCopywriter struct {
	mu    sync.Mutex
	Func  func(ctx context.Context, req model.CopyRequest) (string, adapter.CopyUsage, error)
	calls int
}

func (c *mockCopywriter) Name() string { return "mock" }

func (c *mockCopywriter) GenerateCopy(ctx context.Context, req model.CopyRequest) (string, adapter.CopyUsage, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.Func != nil {
		return c.Func(ctx, req)
	}
	return "üretilen içerik", adapter.CopyUsage{PromptTokens: 10, CompletionTokens: 20}, nil
}

type mockVideoGen struct {
	mu    sync.Mutex
	Func  func(ctx context.Context, req model.VideoRequest) (model.VideoResult, error)
	calls int
}

func (v *mockVideoGen) Name() string { return "mock" }

func (v *mockVideoGen) GenerateVideo(ctx context.Context, req model.VideoRequest) (model.VideoResult, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.Func != nil {
		return v.Func(ctx, req)
	}
	return model.VideoResult{VideoURL: "https://cdn.example/video.mp4"}, nil
}
