package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/charityledger/internal/adapter/repository/postgres"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/oracle"
	"github.com/iho/charityledger/internal/infrastructure/postgres"
	"github.com/iho/charityledger/internal/usecase"
	"github.com/iho/charityledger/internal/usecase/mocks"
)

// BaseTime is the clock start of every Ledger.
var BaseTime = time.Unix(1_700_000_000, 0).UTC()

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the schema. The test is
// skipped when DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "migrations"
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.NewMigrator(dbURL, migrationsPath, zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE settlements, donations, treasuries, charities, wallets, outbox_events, audit_logs CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Ledger is a fully wired set of use cases over the test database with a settable clock.
type Ledger struct {
	Deployment domain.Deployment
	Clock      *mocks.FakeClock

	Lifecycle      *usecase.LifecycleUseCase
	Donations      *usecase.DonationUseCase
	Settlement     *usecase.SettlementUseCase
	Query          *usecase.QueryUseCase
	Wallets        *usecase.WalletUseCase
	Reconciliation *usecase.ReconciliationUseCase

	OutboxRepo *postgresRepo.OutboxRepository
	AuditRepo  *postgresRepo.AuditRepository
	WalletRepo *postgresRepo.WalletRepository
}

// NewLedger wires a ledger for a fresh program id so that tests do not share records.
func (db *TestDB) NewLedger() *Ledger {
	pool := db.Pool

	txManager := postgresRepo.NewTxManager(pool)
	charityRepo := postgresRepo.NewCharityRepository(pool)
	treasuryRepo := postgresRepo.NewTreasuryRepository(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	donationRepo := postgresRepo.NewDonationRepository(pool)
	settlementRepo := postgresRepo.NewSettlementRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(zerolog.Nop()).WithMaxRetries(100, time.Minute)

	deployment := domain.NewDeployment(NewIdentity())
	clock := mocks.NewFakeClock(BaseTime)
	rent := oracle.DefaultRentSchedule()

	return &Ledger{
		Deployment: deployment,
		Clock:      clock,
		Lifecycle: usecase.NewLifecycleUseCase(txManager, charityRepo, treasuryRepo, walletRepo, outboxRepo, auditRepo,
			idGen, clock, rent, deployment, domain.RecordSize).WithRetrier(retrier),
		Donations: usecase.NewDonationUseCase(txManager, charityRepo, treasuryRepo, walletRepo, donationRepo, outboxRepo,
			auditRepo, idGen, clock, deployment).WithRetrier(retrier),
		Settlement: usecase.NewSettlementUseCase(txManager, charityRepo, treasuryRepo, walletRepo, settlementRepo,
			outboxRepo, auditRepo, idGen, clock, rent, deployment, domain.DefaultBaseFee).WithRetrier(retrier),
		Query: usecase.NewQueryUseCase(txManager, charityRepo, treasuryRepo, donationRepo, settlementRepo, deployment),
		Wallets: usecase.NewWalletUseCase(txManager, walletRepo, auditRepo, idGen, clock,
			usecase.AirdropConfig{Enabled: true, MaxAmount: 1 << 62}).WithRetrier(retrier),
		Reconciliation: usecase.NewReconciliationUseCase(txManager, charityRepo, treasuryRepo, donationRepo, settlementRepo,
			rent, clock, deployment),
		OutboxRepo: outboxRepo,
		AuditRepo:  auditRepo,
		WalletRepo: walletRepo,
	}
}

// Fund credits owner through the faucet.
func (l *Ledger) Fund(t *testing.T, ctx context.Context, owner domain.Identity, amount uint64) {
	t.Helper()

	if _, err := l.Wallets.Airdrop(ctx, owner.String(), amount); err != nil {
		t.Fatalf("failed to fund %s: %v", owner, err)
	}
}

// As returns ctx signed by id.
func As(ctx context.Context, id domain.Identity) context.Context {
	return domain.WithPrincipal(ctx, domain.Principal{Identity: id})
}

// NewIdentity returns a fresh identity.
func NewIdentity() domain.Identity {
	return domain.DeriveAddress(domain.Identity{0x7E, 0x57}, ulid.Make().String())
}
