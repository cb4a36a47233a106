package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// AirdropConfig controls the development faucet.
type AirdropConfig struct {
	Enabled   bool
	MaxAmount uint64
}

// WalletUseCase reads wallets and runs the development faucet.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	idGen      IDGenerator
	clock      Clock
	airdrop    AirdropConfig
	audit      auditTrail
	retrier    Retrier
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	airdrop AirdropConfig,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		idGen:      idGen,
		clock:      clock,
		airdrop:    airdrop,
		audit:      auditTrail{repo: auditRepo, idGen: idGen},
	}
}

// WithRetrier retries the whole call on serialization failures.
func (uc *WalletUseCase) WithRetrier(r Retrier) *WalletUseCase {
	uc.retrier = r
	return uc
}

// WithMetrics records operation metrics.
func (uc *WalletUseCase) WithMetrics(m *metrics.Metrics) *WalletUseCase {
	uc.metrics = m
	uc.audit.metrics = m
	return uc
}

// GetWallet returns the wallet of owner.
func (uc *WalletUseCase) GetWallet(ctx context.Context, owner string) (*domain.Wallet, error) {
	id, err := domain.ParseIdentity(owner)
	if err != nil {
		return nil, err
	}

	return uc.walletRepo.Get(ctx, id)
}

// Airdrop credits amount to owner, creating the wallet if needed.
func (uc *WalletUseCase) Airdrop(ctx context.Context, owner string, amount uint64) (wallet *domain.Wallet, err error) {
	start := time.Now()
	defer func() { observe(uc.metrics, OpAirdrop, start, err) }()

	if !uc.airdrop.Enabled {
		return nil, domain.ErrAirdropDisabled
	}

	id, err := domain.ParseIdentity(owner)
	if err != nil {
		return nil, err
	}

	if id.IsZero() {
		return nil, fmt.Errorf("%w: zero identity", domain.ErrInvalidIdentity)
	}

	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}

	if uc.airdrop.MaxAmount > 0 && amount > uc.airdrop.MaxAmount {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAmount, domain.ErrAmountTooLarge)
	}

	entry := auditEntry{
		action:       domain.AuditActionWalletAirdrop,
		resourceType: domain.ResourceTypeWallet,
		resourceID:   id.String(),
	}

	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		now := uc.clock.Now().UTC()

		if err := uc.walletRepo.Ensure(ctx, tx, id, now); err != nil {
			return err
		}

		w, err := uc.walletRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		entry.before = domain.JSON{"balance": formatAmount(w.Balance)}

		balance, err := w.ApplyCredit(amount)
		if err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, id, balance, now); err != nil {
			return err
		}

		w.Balance = balance
		w.UpdatedAt = now

		entry.after = domain.JSON{"balance": formatAmount(balance)}
		if err := uc.audit.success(ctx, tx, entry, now); err != nil {
			return err
		}

		wallet = w
		return nil
	})
	if err != nil {
		uc.audit.failure(ctx, entry, err, time.Now().UTC())
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("owner", id.String()).
		Uint64("amount", amount).
		Uint64("balance", wallet.Balance).
		Msg("airdrop credited")

	if uc.metrics != nil {
		uc.metrics.Airdrops.Inc()
	}

	return wallet, nil
}
