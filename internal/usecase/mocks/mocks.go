package mocks

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// MockCharityRepository is a mock implementation of CharityRepository.
type MockCharityRepository struct {
	store *Store

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error
	GetByAddressFunc          func(ctx context.Context, address domain.Identity) (*domain.Charity, error)
	GetByAddressInTxFunc      func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error)
	GetByAddressForUpdateFunc func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error)
	UpdateFunc                func(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error
}

func NewMockCharityRepository(store *Store) *MockCharityRepository {
	return &MockCharityRepository{store: store}
}

func (m *MockCharityRepository) Create(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, charity)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.charities[charity.Address]; ok {
		return domain.ErrAlreadyInitialized
	}
	m.store.charities[charity.Address] = *charity
	return nil
}

func (m *MockCharityRepository) GetByAddress(ctx context.Context, address domain.Identity) (*domain.Charity, error) {
	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if c, ok := m.store.charities[address]; ok {
		return &c, nil
	}
	return nil, domain.ErrCharityNotFound
}

func (m *MockCharityRepository) GetByAddressInTx(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error) {
	if m.GetByAddressInTxFunc != nil {
		return m.GetByAddressInTxFunc(ctx, tx, address)
	}
	if snap := readSnapshot(tx); snap != nil {
		if c, ok := snap.charities[address]; ok {
			return &c, nil
		}
		return nil, domain.ErrCharityNotFound
	}
	return m.GetByAddress(ctx, address)
}

func (m *MockCharityRepository) GetByAddressForUpdate(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error) {
	if m.GetByAddressForUpdateFunc != nil {
		return m.GetByAddressForUpdateFunc(ctx, tx, address)
	}
	return m.GetByAddress(ctx, address)
}

func (m *MockCharityRepository) Update(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, charity)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.charities[charity.Address]; !ok {
		return domain.ErrCharityNotFound
	}
	m.store.charities[charity.Address] = *charity
	return nil
}

// MockTreasuryRepository is a mock implementation of TreasuryRepository.
type MockTreasuryRepository struct {
	store *Store

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, treasury *domain.Treasury) error
	GetByAddressFunc          func(ctx context.Context, address domain.Identity) (*domain.Treasury, error)
	GetByAddressInTxFunc      func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error)
	GetByAddressForUpdateFunc func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error)
	UpdateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, address domain.Identity, balance uint64, updatedAt time.Time) error
}

func NewMockTreasuryRepository(store *Store) *MockTreasuryRepository {
	return &MockTreasuryRepository{store: store}
}

func (m *MockTreasuryRepository) Create(ctx context.Context, tx usecase.Transaction, treasury *domain.Treasury) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, treasury)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.treasuries[treasury.Address]; ok {
		return domain.ErrAlreadyInitialized
	}
	m.store.treasuries[treasury.Address] = *treasury
	return nil
}

func (m *MockTreasuryRepository) GetByAddress(ctx context.Context, address domain.Identity) (*domain.Treasury, error) {
	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if t, ok := m.store.treasuries[address]; ok {
		return &t, nil
	}
	return nil, domain.ErrCharityNotFound
}

func (m *MockTreasuryRepository) GetByAddressInTx(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
	if m.GetByAddressInTxFunc != nil {
		return m.GetByAddressInTxFunc(ctx, tx, address)
	}
	if snap := readSnapshot(tx); snap != nil {
		if t, ok := snap.treasuries[address]; ok {
			return &t, nil
		}
		return nil, domain.ErrCharityNotFound
	}
	return m.GetByAddress(ctx, address)
}

func (m *MockTreasuryRepository) GetByAddressForUpdate(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
	if m.GetByAddressForUpdateFunc != nil {
		return m.GetByAddressForUpdateFunc(ctx, tx, address)
	}
	return m.GetByAddress(ctx, address)
}

func (m *MockTreasuryRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, address domain.Identity, balance uint64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, address, balance, updatedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	t, ok := m.store.treasuries[address]
	if !ok {
		return domain.ErrCharityNotFound
	}
	t.Balance = balance
	t.Version++
	t.UpdatedAt = updatedAt
	m.store.treasuries[address] = t
	return nil
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	store *Store

	GetFunc           func(ctx context.Context, owner domain.Identity) (*domain.Wallet, error)
	GetForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, owner domain.Identity) (*domain.Wallet, error)
	EnsureFunc        func(ctx context.Context, tx usecase.Transaction, owner domain.Identity, now time.Time) error
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, owner domain.Identity, balance uint64, updatedAt time.Time) error
}

func NewMockWalletRepository(store *Store) *MockWalletRepository {
	return &MockWalletRepository{store: store}
}

func (m *MockWalletRepository) Get(ctx context.Context, owner domain.Identity) (*domain.Wallet, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, owner)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if w, ok := m.store.wallets[owner]; ok {
		return &w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, owner domain.Identity) (*domain.Wallet, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, owner)
	}
	return m.Get(ctx, owner)
}

func (m *MockWalletRepository) Ensure(ctx context.Context, tx usecase.Transaction, owner domain.Identity, now time.Time) error {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, tx, owner, now)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.wallets[owner]; !ok {
		m.store.wallets[owner] = domain.Wallet{Owner: owner, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, owner domain.Identity, balance uint64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, owner, balance, updatedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	w, ok := m.store.wallets[owner]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Balance = balance
	w.Version++
	w.UpdatedAt = updatedAt
	m.store.wallets[owner] = w
	return nil
}

// MockDonationRepository is a mock implementation of DonationRepository.
type MockDonationRepository struct {
	store *Store

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, donation *domain.Donation) error
	ListByCharityFunc func(ctx context.Context, charity domain.Identity, limit, offset int) ([]*domain.Donation, error)
	TotalsFunc        func(ctx context.Context, charity domain.Identity) (int64, decimal.Decimal, error)
	TotalsInTxFunc    func(ctx context.Context, tx usecase.Transaction, charity domain.Identity) (int64, decimal.Decimal, error)
}

func NewMockDonationRepository(store *Store) *MockDonationRepository {
	return &MockDonationRepository{store: store}
}

func (m *MockDonationRepository) Create(ctx context.Context, tx usecase.Transaction, donation *domain.Donation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, donation)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.donations = append(m.store.donations, *donation)
	return nil
}

func (m *MockDonationRepository) ListByCharity(ctx context.Context, charity domain.Identity, limit, offset int) ([]*domain.Donation, error) {
	if m.ListByCharityFunc != nil {
		return m.ListByCharityFunc(ctx, charity, limit, offset)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var donations []*domain.Donation
	for _, d := range slices.Backward(m.store.donations) {
		if d.Charity == charity {
			donations = append(donations, &d)
		}
	}
	if offset >= len(donations) {
		return []*domain.Donation{}, nil
	}
	donations = donations[offset:]
	if limit < len(donations) {
		donations = donations[:limit]
	}
	return donations, nil
}

func (m *MockDonationRepository) Totals(ctx context.Context, charity domain.Identity) (int64, decimal.Decimal, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, charity)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	count, sum := donationTotals(m.store.donations, charity)
	return count, sum, nil
}

func (m *MockDonationRepository) TotalsInTx(ctx context.Context, tx usecase.Transaction, charity domain.Identity) (int64, decimal.Decimal, error) {
	if m.TotalsInTxFunc != nil {
		return m.TotalsInTxFunc(ctx, tx, charity)
	}
	if snap := readSnapshot(tx); snap != nil {
		count, sum := donationTotals(snap.donations, charity)
		return count, sum, nil
	}
	return m.Totals(ctx, charity)
}

func donationTotals(donations []domain.Donation, charity domain.Identity) (int64, decimal.Decimal) {
	var count int64
	sum := decimal.Zero
	for _, d := range donations {
		if d.Charity == charity {
			count++
			sum = sum.Add(domain.DecimalFromUint64(d.Amount))
		}
	}
	return count, sum
}

// MockSettlementRepository is a mock implementation of SettlementRepository.
type MockSettlementRepository struct {
	store *Store

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error
	GetByCharityFunc func(ctx context.Context, charity domain.Identity) (*domain.Settlement, error)
}

func NewMockSettlementRepository(store *Store) *MockSettlementRepository {
	return &MockSettlementRepository{store: store}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.Settlement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, settlement)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.settlements[settlement.Charity]; ok {
		return errors.New("settlement already recorded")
	}
	m.store.settlements[settlement.Charity] = *settlement
	return nil
}

func (m *MockSettlementRepository) GetByCharity(ctx context.Context, charity domain.Identity) (*domain.Settlement, error) {
	if m.GetByCharityFunc != nil {
		return m.GetByCharityFunc(ctx, charity)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if s, ok := m.store.settlements[charity]; ok {
		return &s, nil
	}
	return nil, domain.ErrSettlementNotFound
}

func (m *MockSettlementRepository) GetByCharityInTx(ctx context.Context, tx usecase.Transaction, charity domain.Identity) (*domain.Settlement, error) {
	if snap := readSnapshot(tx); snap != nil {
		if s, ok := snap.settlements[charity]; ok {
			return &s, nil
		}
		return nil, domain.ErrSettlementNotFound
	}
	return m.GetByCharity(ctx, charity)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	store *Store

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository(store *Store) *MockOutboxRepository {
	return &MockOutboxRepository{store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.outbox = append(m.store.outbox, *event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.store.outbox {
		if !e.Published && len(events) < limit {
			events = append(events, &e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.outbox {
		if m.store.outbox[i].ID == id {
			m.store.outbox[i].Published = true
			m.store.outbox[i].PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.store.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, &e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.outbox = slices.DeleteFunc(m.store.outbox, func(e domain.OutboxEvent) bool {
		return e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before)
	})
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	store *Store

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewMockAuditRepository(store *Store) *MockAuditRepository {
	return &MockAuditRepository{store: store}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.audit = append(m.store.audit, *log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var logs []*domain.AuditLog
	for _, l := range m.store.audit {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.Principal != "" && l.Principal != filter.Principal {
			continue
		}
		logs = append(logs, &l)
	}
	return logs, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
// With a Store, transactions are serialized and rolled back to a snapshot.
type MockTransactionManager struct {
	store *Store

	BeginFunc         func(ctx context.Context) (usecase.Transaction, error)
	BeginReadOnlyFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if m.store == nil {
		return &MockTransaction{}, nil
	}
	m.store.txMu.Lock()
	return &MockTransaction{store: m.store, snap: m.store.snapshot()}, nil
}

// BeginReadOnly takes a snapshot of the Store without serializing against
// writers. Reads through the returned transaction see only that snapshot.
func (m *MockTransactionManager) BeginReadOnly(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginReadOnlyFunc != nil {
		return m.BeginReadOnlyFunc(ctx)
	}
	if m.store == nil {
		return &MockTransaction{}, nil
	}
	return &MockTransaction{snap: m.store.snapshot(), readOnly: true}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	store    *Store
	snap     *snapshot
	readOnly bool
	done     bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.finish()
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.done {
		return nil
	}
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	if m.store != nil {
		m.store.restore(m.snap)
	}
	m.finish()
	return nil
}

func (m *MockTransaction) finish() {
	if m.done {
		return
	}
	m.done = true
	if m.store != nil {
		m.store.txMu.Unlock()
	}
}

func readSnapshot(tx usecase.Transaction) *snapshot {
	if t, ok := tx.(*MockTransaction); ok && t.readOnly {
		return t.snap
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockRetrier retries operation while it returns RetryOn.
type MockRetrier struct {
	RetryOn  error
	Attempts int
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	for {
		m.Attempts++
		err := operation()
		if err == nil || m.RetryOn == nil || !errors.Is(err, m.RetryOn) || m.Attempts >= 5 {
			return err
		}
	}
}

// FakeClock is a settable Clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	DeleteFunc      func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
