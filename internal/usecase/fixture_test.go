package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/oracle"
	"github.com/iho/charityledger/internal/usecase"
	"github.com/iho/charityledger/internal/usecase/mocks"
)

var (
	programID   = domain.Identity{0xAA, 0x01}
	beneficiary = domain.Identity{0xB0, 0x01}
	payer       = domain.Identity{0xC0, 0x01}
	donor       = domain.Identity{0xD0, 0x01}
	baseTime    = time.Unix(1_700_000_000, 0).UTC()
)

const (
	// Rent minimum of a RecordSize holding under the default schedule.
	testRent   uint64 = 1_287_600
	testFee    uint64 = 5025
	payerFunds uint64 = 10_000_000
	donorFunds uint64 = 10_000
)

const windowWidth = 100

type fixture struct {
	store      *mocks.Store
	clock      *mocks.FakeClock
	deployment domain.Deployment

	txManager      *mocks.MockTransactionManager
	charityRepo    *mocks.MockCharityRepository
	treasuryRepo   *mocks.MockTreasuryRepository
	walletRepo     *mocks.MockWalletRepository
	donationRepo   *mocks.MockDonationRepository
	settlementRepo *mocks.MockSettlementRepository
	outboxRepo     *mocks.MockOutboxRepository
	auditRepo      *mocks.MockAuditRepository
	idGen          *mocks.MockIDGenerator
	cache          *mocks.MockCache

	lifecycle  *usecase.LifecycleUseCase
	donations  *usecase.DonationUseCase
	settlement *usecase.SettlementUseCase
	query      *usecase.QueryUseCase
	wallets    *usecase.WalletUseCase
	reconcile  *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := mocks.NewStore()
	f := &fixture{
		store:          store,
		clock:          mocks.NewFakeClock(baseTime),
		deployment:     domain.NewDeployment(programID),
		txManager:      mocks.NewMockTransactionManager(store),
		charityRepo:    mocks.NewMockCharityRepository(store),
		treasuryRepo:   mocks.NewMockTreasuryRepository(store),
		walletRepo:     mocks.NewMockWalletRepository(store),
		donationRepo:   mocks.NewMockDonationRepository(store),
		settlementRepo: mocks.NewMockSettlementRepository(store),
		outboxRepo:     mocks.NewMockOutboxRepository(store),
		auditRepo:      mocks.NewMockAuditRepository(store),
		idGen:          mocks.NewMockIDGenerator(),
		cache:          mocks.NewMockCache(),
	}

	rent := oracle.DefaultRentSchedule()

	f.lifecycle = usecase.NewLifecycleUseCase(
		f.txManager, f.charityRepo, f.treasuryRepo, f.walletRepo, f.outboxRepo, f.auditRepo,
		f.idGen, f.clock, rent, f.deployment, domain.RecordSize,
	).WithCache(f.cache)
	f.donations = usecase.NewDonationUseCase(
		f.txManager, f.charityRepo, f.treasuryRepo, f.walletRepo, f.donationRepo, f.outboxRepo, f.auditRepo,
		f.idGen, f.clock, f.deployment,
	).WithCache(f.cache)
	f.settlement = usecase.NewSettlementUseCase(
		f.txManager, f.charityRepo, f.treasuryRepo, f.walletRepo, f.settlementRepo, f.outboxRepo, f.auditRepo,
		f.idGen, f.clock, rent, f.deployment, domain.DefaultBaseFee,
	).WithCache(f.cache)
	f.query = usecase.NewQueryUseCase(
		f.txManager, f.charityRepo, f.treasuryRepo, f.donationRepo, f.settlementRepo, f.deployment,
	).WithCache(f.cache, time.Minute)
	f.wallets = usecase.NewWalletUseCase(
		f.txManager, f.walletRepo, f.auditRepo, f.idGen, f.clock,
		usecase.AirdropConfig{Enabled: true, MaxAmount: 1_000_000_000},
	)
	f.reconcile = usecase.NewReconciliationUseCase(
		f.txManager, f.charityRepo, f.treasuryRepo, f.donationRepo, f.settlementRepo, rent, f.clock, f.deployment,
	)

	store.PutWallet(payer, payerFunds)
	store.PutWallet(donor, donorFunds)

	return f
}

func as(id domain.Identity) context.Context {
	return domain.WithPrincipal(context.Background(), domain.Principal{Identity: id})
}

func (f *fixture) deadline() int64 {
	return baseTime.Unix() + windowWidth
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()

	_, err := f.lifecycle.Initialize(as(payer), usecase.InitializeInput{
		Beneficiary: beneficiary.String(),
		Deadline:    f.deadline(),
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (f *fixture) charity(t *testing.T) domain.Charity {
	t.Helper()

	c, ok := f.store.Charity(f.deployment.Charity)
	if !ok {
		t.Fatal("charity record missing")
	}
	return c
}

func (f *fixture) treasuryBalance(t *testing.T) uint64 {
	t.Helper()

	tr, ok := f.store.Treasury(f.deployment.Treasury)
	if !ok {
		t.Fatal("treasury missing")
	}
	return tr.Balance
}

func (f *fixture) walletBalance(t *testing.T, owner domain.Identity) uint64 {
	t.Helper()

	b, _ := f.store.Wallet(owner)
	return b
}
