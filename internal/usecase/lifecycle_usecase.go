package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// LifecycleUseCase creates the charity record and its treasury.
type LifecycleUseCase struct {
	txManager    TransactionManager
	charityRepo  CharityRepository
	treasuryRepo TreasuryRepository
	walletRepo   WalletRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	clock        Clock
	rent         RentOracle
	deployment   domain.Deployment
	dataSize     int
	audit        auditTrail
	retrier      Retrier
	cache        Cache
	metrics      *metrics.Metrics
}

// NewLifecycleUseCase creates a new LifecycleUseCase.
// dataSize is the storage allocated to the treasury and drives its rent minimum.
func NewLifecycleUseCase(
	txManager TransactionManager,
	charityRepo CharityRepository,
	treasuryRepo TreasuryRepository,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	rent RentOracle,
	deployment domain.Deployment,
	dataSize int,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		txManager:    txManager,
		charityRepo:  charityRepo,
		treasuryRepo: treasuryRepo,
		walletRepo:   walletRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		clock:        clock,
		rent:         rent,
		deployment:   deployment,
		dataSize:     dataSize,
		audit:        auditTrail{repo: auditRepo, idGen: idGen},
	}
}

// WithRetrier retries the whole call on serialization failures.
func (uc *LifecycleUseCase) WithRetrier(r Retrier) *LifecycleUseCase {
	uc.retrier = r
	return uc
}

// WithCache invalidates the query cache after each commit.
func (uc *LifecycleUseCase) WithCache(c Cache) *LifecycleUseCase {
	uc.cache = c
	return uc
}

// WithMetrics records operation metrics.
func (uc *LifecycleUseCase) WithMetrics(m *metrics.Metrics) *LifecycleUseCase {
	uc.metrics = m
	uc.audit.metrics = m
	return uc
}

// InitializeInput represents input for creating the charity record.
type InitializeInput struct {
	Beneficiary string
	Deadline    int64
}

// InitializeResult is the freshly created record and treasury.
type InitializeResult struct {
	Charity  *domain.Charity
	Treasury *domain.Treasury
}

// Initialize creates the charity record with an open donation window. The calling
// principal funds the treasury's rent minimum from its wallet.
func (uc *LifecycleUseCase) Initialize(ctx context.Context, input InitializeInput) (result *InitializeResult, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, OpInitialize, start, err) }()

	entry := auditEntry{
		action:       domain.AuditActionCharityInitialize,
		resourceType: domain.ResourceTypeCharity,
		resourceID:   uc.deployment.Charity.String(),
	}

	payer, err := domain.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()

	charity, err := domain.NewCharity(uc.deployment.Charity, input.Beneficiary, input.Deadline, now)
	if err != nil {
		uc.audit.failure(ctx, entry, err, now)
		return nil, err
	}

	rentReserve := uc.rent.MinimumBalance(uc.dataSize)

	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		if err := uc.charityRepo.Create(ctx, tx, charity); err != nil {
			return err
		}

		treasury := &domain.Treasury{
			Address:   uc.deployment.Treasury,
			Charity:   charity.Address,
			Balance:   rentReserve,
			DataSize:  uc.dataSize,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.treasuryRepo.Create(ctx, tx, treasury); err != nil {
			return err
		}

		wallet, err := uc.walletRepo.GetForUpdate(ctx, tx, payer.Identity)
		if err != nil {
			return err
		}

		if err := wallet.ValidateDebit(rentReserve); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, payer.Identity, wallet.ApplyDebit(rentReserve), now); err != nil {
			return err
		}

		payload := domain.MarshalState(domain.CharityInitializedEvent{
			Charity:     charity.Address.String(),
			Treasury:    treasury.Address.String(),
			Beneficiary: charity.Beneficiary.String(),
			Deadline:    charity.Deadline,
			RentFunded:  formatAmount(rentReserve),
		})
		event := domain.NewCharityEvent(uc.idGen.Generate(), charity.Address, domain.EventTypeCharityInitialized, payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		entry.after = domain.StateOf(charity)
		if err := uc.audit.success(ctx, tx, entry, now); err != nil {
			return err
		}

		result = &InitializeResult{Charity: charity, Treasury: treasury}
		return nil
	})
	if err != nil {
		uc.audit.failure(ctx, entry, err, now)
		return nil, err
	}

	invalidateCharityInfo(ctx, uc.cache)

	zerolog.Ctx(ctx).Info().
		Str("charity", charity.Address.String()).
		Str("beneficiary", charity.Beneficiary.String()).
		Int64("deadline", charity.Deadline).
		Msg("charity initialized")

	if uc.metrics != nil {
		uc.metrics.CharitiesInitialized.Inc()
		uc.metrics.DonationWindowOpen.Set(1)
		uc.metrics.TreasuryBalance.Set(float64(rentReserve))
	}

	return result, nil
}
