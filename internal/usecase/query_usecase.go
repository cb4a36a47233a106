package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

const (
	charityInfoCacheKey = "charity:info"
	// charityInfoGenerationKey changes on every committed mutation. A cached
	// snapshot is served only while it carries the current generation.
	charityInfoGenerationKey = "charity:info:generation"
)

// QueryUseCase serves read-only views of the ledger.
type QueryUseCase struct {
	txManager      TransactionManager
	charityRepo    CharityRepository
	treasuryRepo   TreasuryRepository
	donationRepo   DonationRepository
	settlementRepo SettlementRepository
	deployment     domain.Deployment
	cache          Cache
	cacheTTL       time.Duration
	metrics        *metrics.Metrics
}

// NewQueryUseCase creates a new QueryUseCase.
func NewQueryUseCase(
	txManager TransactionManager,
	charityRepo CharityRepository,
	treasuryRepo TreasuryRepository,
	donationRepo DonationRepository,
	settlementRepo SettlementRepository,
	deployment domain.Deployment,
) *QueryUseCase {
	return &QueryUseCase{
		txManager:      txManager,
		charityRepo:    charityRepo,
		treasuryRepo:   treasuryRepo,
		donationRepo:   donationRepo,
		settlementRepo: settlementRepo,
		deployment:     deployment,
		cacheTTL:       DefaultCacheTTL,
	}
}

// WithCache enables the read-through snapshot cache.
func (uc *QueryUseCase) WithCache(c Cache, ttl time.Duration) *QueryUseCase {
	uc.cache = c
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

// WithMetrics records cache lookups.
func (uc *QueryUseCase) WithMetrics(m *metrics.Metrics) *QueryUseCase {
	uc.metrics = m
	return uc
}

// CharityInfo is the public snapshot of the record and its treasury.
type CharityInfo struct {
	Address            domain.Identity
	Treasury           domain.Identity
	Beneficiary        domain.Identity
	TotalDonations     uint64
	Deadline           int64
	DonationWindowOpen bool
	TreasuryBalance    uint64
}

type cachedCharityInfo struct {
	Address            domain.Identity `json:"address"`
	Treasury           domain.Identity `json:"treasury"`
	Beneficiary        domain.Identity `json:"beneficiary"`
	TotalDonations     string          `json:"total_donations"`
	Deadline           int64           `json:"deadline"`
	DonationWindowOpen bool            `json:"donation_window_open"`
	TreasuryBalance    string          `json:"treasury_balance"`
	Generation         string          `json:"generation"`
}

// GetCharityInfo returns the current snapshot. The record and the treasury are
// read in one read-only transaction. It never mutates state.
func (uc *QueryUseCase) GetCharityInfo(ctx context.Context) (*CharityInfo, error) {
	// The generation is read before the snapshot so that a mutation committing
	// after this point always invalidates what we are about to cache.
	generation := uc.infoGeneration(ctx)
	if info, ok := uc.cachedInfo(ctx, generation); ok {
		return info, nil
	}

	var info *CharityInfo
	err := runReadOnly(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		charity, err := uc.charityRepo.GetByAddressInTx(ctx, tx, uc.deployment.Charity)
		if err != nil {
			return err
		}

		treasury, err := uc.treasuryRepo.GetByAddressInTx(ctx, tx, uc.deployment.Treasury)
		if err != nil {
			return err
		}

		info = &CharityInfo{
			Address:            charity.Address,
			Treasury:           treasury.Address,
			Beneficiary:        charity.Beneficiary,
			TotalDonations:     charity.TotalDonations,
			Deadline:           charity.Deadline,
			DonationWindowOpen: charity.DonationWindowOpen,
			TreasuryBalance:    treasury.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.storeInfo(ctx, info, generation)

	return info, nil
}

// ListDonations returns donation receipts, newest first.
func (uc *QueryUseCase) ListDonations(ctx context.Context, limit, offset int) ([]*domain.Donation, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.donationRepo.ListByCharity(ctx, uc.deployment.Charity, limit, offset)
}

// GetSettlement returns the settlement receipt, or domain.ErrSettlementNotFound while open.
func (uc *QueryUseCase) GetSettlement(ctx context.Context) (*domain.Settlement, error) {
	return uc.settlementRepo.GetByCharity(ctx, uc.deployment.Charity)
}

func (uc *QueryUseCase) infoGeneration(ctx context.Context) string {
	if uc.cache == nil {
		return ""
	}

	data, err := uc.cache.Get(ctx, charityInfoGenerationKey)
	if err != nil {
		return ""
	}
	return string(data)
}

func (uc *QueryUseCase) cachedInfo(ctx context.Context, generation string) (*CharityInfo, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, charityInfoCacheKey)
	if err != nil || data == nil {
		uc.countLookup("miss")
		return nil, false
	}

	var cached cachedCharityInfo
	if err := json.Unmarshal(data, &cached); err != nil || cached.Generation != generation {
		uc.countLookup("miss")
		return nil, false
	}

	total, err1 := strconv.ParseUint(cached.TotalDonations, 10, 64)
	balance, err2 := strconv.ParseUint(cached.TreasuryBalance, 10, 64)
	if err := errors.Join(err1, err2); err != nil {
		uc.countLookup("miss")
		return nil, false
	}

	uc.countLookup("hit")

	return &CharityInfo{
		Address:            cached.Address,
		Treasury:           cached.Treasury,
		Beneficiary:        cached.Beneficiary,
		TotalDonations:     total,
		Deadline:           cached.Deadline,
		DonationWindowOpen: cached.DonationWindowOpen,
		TreasuryBalance:    balance,
	}, true
}

func (uc *QueryUseCase) storeInfo(ctx context.Context, info *CharityInfo, generation string) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(cachedCharityInfo{
		Address:            info.Address,
		Treasury:           info.Treasury,
		Beneficiary:        info.Beneficiary,
		TotalDonations:     formatAmount(info.TotalDonations),
		Deadline:           info.Deadline,
		DonationWindowOpen: info.DonationWindowOpen,
		TreasuryBalance:    formatAmount(info.TreasuryBalance),
		Generation:         generation,
	})
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, charityInfoCacheKey, data, uc.cacheTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to cache charity info")
	}
}

func (uc *QueryUseCase) countLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// invalidateCharityInfo runs after a committed mutation. It moves the cache to a
// new generation, which also rejects snapshots read before the commit but stored
// after this call, and drops the cached snapshot.
func invalidateCharityInfo(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}

	if err := cache.Set(ctx, charityInfoGenerationKey, []byte(uuid.NewString()), 0); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to advance charity info generation")
	}

	if err := cache.Delete(ctx, charityInfoCacheKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate charity info cache")
	}
}
