package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// DonationUseCase moves donor funds into the treasury while the window is open.
type DonationUseCase struct {
	txManager    TransactionManager
	charityRepo  CharityRepository
	treasuryRepo TreasuryRepository
	walletRepo   WalletRepository
	donationRepo DonationRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	clock        Clock
	deployment   domain.Deployment
	audit        auditTrail
	retrier      Retrier
	cache        Cache
	metrics      *metrics.Metrics
}

// NewDonationUseCase creates a new DonationUseCase.
func NewDonationUseCase(
	txManager TransactionManager,
	charityRepo CharityRepository,
	treasuryRepo TreasuryRepository,
	walletRepo WalletRepository,
	donationRepo DonationRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	deployment domain.Deployment,
) *DonationUseCase {
	return &DonationUseCase{
		txManager:    txManager,
		charityRepo:  charityRepo,
		treasuryRepo: treasuryRepo,
		walletRepo:   walletRepo,
		donationRepo: donationRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		clock:        clock,
		deployment:   deployment,
		audit:        auditTrail{repo: auditRepo, idGen: idGen},
	}
}

// WithRetrier retries the whole call on serialization failures.
func (uc *DonationUseCase) WithRetrier(r Retrier) *DonationUseCase {
	uc.retrier = r
	return uc
}

// WithCache invalidates the query cache after each commit.
func (uc *DonationUseCase) WithCache(c Cache) *DonationUseCase {
	uc.cache = c
	return uc
}

// WithMetrics records operation metrics.
func (uc *DonationUseCase) WithMetrics(m *metrics.Metrics) *DonationUseCase {
	uc.metrics = m
	uc.audit.metrics = m
	return uc
}

// Donate transfers amount from the calling principal's wallet to the treasury and
// adds it to the record's total. Either every balance moves or none does.
func (uc *DonationUseCase) Donate(ctx context.Context, amount uint64) (donation *domain.Donation, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, OpDonate, start, err) }()

	entry := auditEntry{
		action:       domain.AuditActionCharityDonate,
		resourceType: domain.ResourceTypeCharity,
		resourceID:   uc.deployment.Charity.String(),
	}

	donor, err := domain.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	var now time.Time
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now = uc.clock.Now().UTC()

		charity, err := lockCharity(ctx, uc.charityRepo, tx, uc.deployment.Charity)
		if err != nil {
			return err
		}
		entry.before = domain.StateOf(charity)

		if err := charity.ValidateDonation(now.Unix()); err != nil {
			return err
		}

		total, err := charity.ApplyDonation(amount)
		if err != nil {
			return err
		}

		treasury, err := uc.treasuryRepo.GetByAddressForUpdate(ctx, tx, uc.deployment.Treasury)
		if err != nil {
			return err
		}

		treasuryAfter, err := treasury.ApplyCredit(amount)
		if err != nil {
			return err
		}

		wallet, err := uc.walletRepo.GetForUpdate(ctx, tx, donor.Identity)
		if err != nil {
			return err
		}

		if err := wallet.ValidateDebit(amount); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, donor.Identity, wallet.ApplyDebit(amount), now); err != nil {
			return err
		}

		if err := uc.treasuryRepo.UpdateBalance(ctx, tx, treasury.Address, treasuryAfter, now); err != nil {
			return err
		}

		charity.TotalDonations = total
		charity.UpdatedAt = now
		if err := uc.charityRepo.Update(ctx, tx, charity); err != nil {
			return err
		}

		// The treasury must hold exactly what was credited.
		current, err := uc.treasuryRepo.GetByAddressForUpdate(ctx, tx, treasury.Address)
		if err != nil {
			return err
		}
		if current.Balance != treasuryAfter {
			return fmt.Errorf("%w: expected %d, found %d", domain.ErrBalanceMismatch, treasuryAfter, current.Balance)
		}

		d := &domain.Donation{
			ID:                   uc.idGen.Generate(),
			Charity:              charity.Address,
			Donor:                donor.Identity,
			Amount:               amount,
			TotalAfter:           total,
			TreasuryBalanceAfter: treasuryAfter,
			CreatedAt:            now,
		}
		if err := uc.donationRepo.Create(ctx, tx, d); err != nil {
			return err
		}

		payload := domain.MarshalState(domain.DonationReceivedEvent{
			DonationID: d.ID,
			Donor:      d.Donor.String(),
			Amount:     formatAmount(d.Amount),
			Total:      formatAmount(d.TotalAfter),
		})
		event := domain.NewCharityEvent(uc.idGen.Generate(), charity.Address, domain.EventTypeDonationReceived, payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		entry.after = domain.StateOf(charity)
		if err := uc.audit.success(ctx, tx, entry, now); err != nil {
			return err
		}

		donation = d
		return nil
	})
	if err != nil {
		uc.audit.failure(ctx, entry, err, time.Now().UTC())
		return nil, err
	}

	invalidateCharityInfo(ctx, uc.cache)

	zerolog.Ctx(ctx).Info().
		Str("donation_id", donation.ID).
		Str("donor", donation.Donor.String()).
		Uint64("amount", donation.Amount).
		Uint64("total", donation.TotalAfter).
		Msg("donation received")

	if uc.metrics != nil {
		uc.metrics.DonationsReceived.Inc()
		uc.metrics.DonationAmount.Observe(float64(donation.Amount))
		uc.metrics.TotalDonations.Set(float64(donation.TotalAfter))
		uc.metrics.TreasuryBalance.Set(float64(donation.TreasuryBalanceAfter))
	}

	return donation, nil
}

// lockCharity locks the record for the rest of tx. A missing record means the
// window was never opened.
func lockCharity(ctx context.Context, repo CharityRepository, tx Transaction, address domain.Identity) (*domain.Charity, error) {
	charity, err := repo.GetByAddressForUpdate(ctx, tx, address)
	if err != nil {
		if errors.Is(err, domain.ErrCharityNotFound) {
			return nil, fmt.Errorf("%w: charity is not initialized", domain.ErrDonationsNotAllowed)
		}
		return nil, err
	}
	return charity, nil
}
