package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// SettlementUseCase pays the treasury out to the beneficiary once, after the deadline.
// It is the only code path that debits the treasury.
type SettlementUseCase struct {
	txManager      TransactionManager
	charityRepo    CharityRepository
	treasuryRepo   TreasuryRepository
	walletRepo     WalletRepository
	settlementRepo SettlementRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	clock          Clock
	rent           RentOracle
	deployment     domain.Deployment
	baseFee        uint64
	audit          auditTrail
	retrier        Retrier
	cache          Cache
	metrics        *metrics.Metrics
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	charityRepo CharityRepository,
	treasuryRepo TreasuryRepository,
	walletRepo WalletRepository,
	settlementRepo SettlementRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	rent RentOracle,
	deployment domain.Deployment,
	baseFee uint64,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:      txManager,
		charityRepo:    charityRepo,
		treasuryRepo:   treasuryRepo,
		walletRepo:     walletRepo,
		settlementRepo: settlementRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		clock:          clock,
		rent:           rent,
		deployment:     deployment,
		baseFee:        baseFee,
		audit:          auditTrail{repo: auditRepo, idGen: idGen},
	}
}

// WithRetrier retries the whole call on serialization failures.
func (uc *SettlementUseCase) WithRetrier(r Retrier) *SettlementUseCase {
	uc.retrier = r
	return uc
}

// WithCache invalidates the query cache after each commit.
func (uc *SettlementUseCase) WithCache(c Cache) *SettlementUseCase {
	uc.cache = c
	return uc
}

// WithMetrics records operation metrics.
func (uc *SettlementUseCase) WithMetrics(m *metrics.Metrics) *SettlementUseCase {
	uc.metrics = m
	uc.audit.metrics = m
	return uc
}

// Settle transfers the treasury balance net of the fee and rent reserves to the
// beneficiary and closes the donation window. Any principal may trigger it.
func (uc *SettlementUseCase) Settle(ctx context.Context) (settlement *domain.Settlement, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, OpSettle, start, err) }()

	entry := auditEntry{
		action:       domain.AuditActionCharitySettle,
		resourceType: domain.ResourceTypeCharity,
		resourceID:   uc.deployment.Charity.String(),
	}

	caller, err := domain.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now().UTC()

		charity, err := lockCharity(ctx, uc.charityRepo, tx, uc.deployment.Charity)
		if err != nil {
			return err
		}
		entry.before = domain.StateOf(charity)

		if err := charity.ValidateSettlement(now.Unix()); err != nil {
			return err
		}

		treasury, err := uc.treasuryRepo.GetByAddressForUpdate(ctx, tx, uc.deployment.Treasury)
		if err != nil {
			return err
		}

		feeReserve := domain.FeeReserve(uc.baseFee)
		rentReserve := uc.rent.MinimumBalance(treasury.DataSize)

		if err := uc.walletRepo.Ensure(ctx, tx, charity.Beneficiary, now); err != nil {
			return err
		}

		beneficiary, err := uc.walletRepo.GetForUpdate(ctx, tx, charity.Beneficiary)
		if err != nil {
			return err
		}

		plan, err := domain.PlanSettlement(treasury.Balance, beneficiary.Balance, feeReserve, rentReserve)
		if err != nil {
			return err
		}

		s := domain.NewSettlement(uc.idGen.Generate(), charity, caller.Identity, plan, now)

		if err := uc.treasuryRepo.UpdateBalance(ctx, tx, treasury.Address, plan.TreasuryAfter, now); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, charity.Beneficiary, plan.BeneficiaryAfter, now); err != nil {
			return err
		}

		charity.Close(now)
		if err := uc.charityRepo.Update(ctx, tx, charity); err != nil {
			return err
		}

		if err := uc.settlementRepo.Create(ctx, tx, s); err != nil {
			return err
		}

		payload := domain.MarshalState(domain.CharitySettledEvent{
			SettlementID: s.ID,
			Beneficiary:  s.Beneficiary.String(),
			Amount:       formatAmount(s.Amount),
			FeeReserve:   formatAmount(s.FeeReserve),
			RentReserve:  formatAmount(s.RentReserve),
		})
		event := domain.NewCharityEvent(uc.idGen.Generate(), charity.Address, domain.EventTypeCharitySettled, payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		entry.after = domain.StateOf(charity)
		if err := uc.audit.success(ctx, tx, entry, now); err != nil {
			return err
		}

		settlement = s
		return nil
	})
	if err != nil {
		uc.audit.failure(ctx, entry, err, time.Now().UTC())
		return nil, err
	}

	invalidateCharityInfo(ctx, uc.cache)

	zerolog.Ctx(ctx).Info().
		Str("settlement_id", settlement.ID).
		Str("beneficiary", settlement.Beneficiary.String()).
		Uint64("amount", settlement.Amount).
		Uint64("fee_reserve", settlement.FeeReserve).
		Uint64("rent_reserve", settlement.RentReserve).
		Msg("charity settled")

	if uc.metrics != nil {
		uc.metrics.Settlements.Inc()
		uc.metrics.SettlementAmount.Observe(float64(settlement.Amount))
		uc.metrics.TreasuryBalance.Set(float64(settlement.TreasuryAfter))
		uc.metrics.DonationWindowOpen.Set(0)
	}

	return settlement, nil
}
