package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
)

// CharityRepository defines data access for the charity record.
type CharityRepository interface {
	// Create inserts the record. A second insert at the same address returns domain.ErrAlreadyInitialized.
	Create(ctx context.Context, tx Transaction, charity *domain.Charity) error
	GetByAddress(ctx context.Context, address domain.Identity) (*domain.Charity, error)
	GetByAddressInTx(ctx context.Context, tx Transaction, address domain.Identity) (*domain.Charity, error)
	GetByAddressForUpdate(ctx context.Context, tx Transaction, address domain.Identity) (*domain.Charity, error)
	Update(ctx context.Context, tx Transaction, charity *domain.Charity) error
}

// TreasuryRepository defines data access for the treasury holding.
type TreasuryRepository interface {
	Create(ctx context.Context, tx Transaction, treasury *domain.Treasury) error
	GetByAddress(ctx context.Context, address domain.Identity) (*domain.Treasury, error)
	GetByAddressInTx(ctx context.Context, tx Transaction, address domain.Identity) (*domain.Treasury, error)
	GetByAddressForUpdate(ctx context.Context, tx Transaction, address domain.Identity) (*domain.Treasury, error)
	UpdateBalance(ctx context.Context, tx Transaction, address domain.Identity, balance uint64, updatedAt time.Time) error
}

// WalletRepository defines data access for principal wallets.
type WalletRepository interface {
	Get(ctx context.Context, owner domain.Identity) (*domain.Wallet, error)
	GetForUpdate(ctx context.Context, tx Transaction, owner domain.Identity) (*domain.Wallet, error)
	// Ensure creates an empty wallet for owner unless one exists.
	Ensure(ctx context.Context, tx Transaction, owner domain.Identity, now time.Time) error
	UpdateBalance(ctx context.Context, tx Transaction, owner domain.Identity, balance uint64, updatedAt time.Time) error
}

// DonationRepository defines data access for donation receipts.
type DonationRepository interface {
	Create(ctx context.Context, tx Transaction, donation *domain.Donation) error
	ListByCharity(ctx context.Context, charity domain.Identity, limit, offset int) ([]*domain.Donation, error)
	// Totals returns the receipt count and the sum of receipt amounts.
	Totals(ctx context.Context, charity domain.Identity) (int64, decimal.Decimal, error)
	TotalsInTx(ctx context.Context, tx Transaction, charity domain.Identity) (int64, decimal.Decimal, error)
}

// SettlementRepository defines data access for settlement receipts.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.Settlement) error
	GetByCharity(ctx context.Context, charity domain.Identity) (*domain.Settlement, error)
	GetByCharityInTx(ctx context.Context, tx Transaction, charity domain.Identity) (*domain.Settlement, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginReadOnly opens a read-only transaction. All reads made through it
	// observe one snapshot.
	BeginReadOnly(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation that failed on a transient storage conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock is the trusted wall-clock oracle.
type Clock interface {
	Now() time.Time
}

// RentOracle reports the minimum balance a holding of dataSize bytes must keep.
type RentOracle interface {
	MinimumBalance(dataSize int) uint64
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so a failed request can be retried.
	Delete(ctx context.Context, key string) error
}
