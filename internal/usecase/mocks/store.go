package mocks

import (
	"maps"
	"sync"

	"github.com/iho/charityledger/internal/domain"
)

// Store is the in-memory state behind the fake repositories. Transactions begun
// through MockTransactionManager run one at a time and roll back to a snapshot,
// which gives the fakes serializable semantics.
type Store struct {
	mu sync.RWMutex

	charities   map[domain.Identity]domain.Charity
	treasuries  map[domain.Identity]domain.Treasury
	wallets     map[domain.Identity]domain.Wallet
	donations   []domain.Donation
	settlements map[domain.Identity]domain.Settlement
	outbox      []domain.OutboxEvent
	audit       []domain.AuditLog

	txMu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		charities:   make(map[domain.Identity]domain.Charity),
		treasuries:  make(map[domain.Identity]domain.Treasury),
		wallets:     make(map[domain.Identity]domain.Wallet),
		settlements: make(map[domain.Identity]domain.Settlement),
	}
}

type snapshot struct {
	charities   map[domain.Identity]domain.Charity
	treasuries  map[domain.Identity]domain.Treasury
	wallets     map[domain.Identity]domain.Wallet
	donations   []domain.Donation
	settlements map[domain.Identity]domain.Settlement
	outbox      []domain.OutboxEvent
	audit       []domain.AuditLog
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &snapshot{
		charities:   maps.Clone(s.charities),
		treasuries:  maps.Clone(s.treasuries),
		wallets:     maps.Clone(s.wallets),
		donations:   append([]domain.Donation(nil), s.donations...),
		settlements: maps.Clone(s.settlements),
		outbox:      append([]domain.OutboxEvent(nil), s.outbox...),
		audit:       append([]domain.AuditLog(nil), s.audit...),
	}
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.charities = snap.charities
	s.treasuries = snap.treasuries
	s.wallets = snap.wallets
	s.donations = snap.donations
	s.settlements = snap.settlements
	s.outbox = snap.outbox
	s.audit = snap.audit
}

// PutWallet seeds a wallet.
func (s *Store) PutWallet(owner domain.Identity, balance uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[owner] = domain.Wallet{Owner: owner, Balance: balance}
}

// PutCharity seeds a charity record.
func (s *Store) PutCharity(c domain.Charity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charities[c.Address] = c
}

// PutTreasury seeds a treasury.
func (s *Store) PutTreasury(t domain.Treasury) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.treasuries[t.Address] = t
}

// Wallet returns the committed balance of owner and whether the wallet exists.
func (s *Store) Wallet(owner domain.Identity) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[owner]
	return w.Balance, ok
}

// Charity returns a copy of the record at address.
func (s *Store) Charity(address domain.Identity) (domain.Charity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charities[address]
	return c, ok
}

// Treasury returns a copy of the treasury at address.
func (s *Store) Treasury(address domain.Identity) (domain.Treasury, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.treasuries[address]
	return t, ok
}

// OutboxEvents returns the stored outbox events in insertion order.
func (s *Store) OutboxEvents() []domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OutboxEvent(nil), s.outbox...)
}

// AuditLogs returns the stored audit logs in insertion order.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditLog(nil), s.audit...)
}

// Donations returns the stored donation receipts in insertion order.
func (s *Store) Donations() []domain.Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Donation(nil), s.donations...)
}
