package keeper

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// Settler is the settlement operation the keeper drives.
type Settler interface {
	Settle(ctx context.Context) (*domain.Settlement, error)
}

// SettlementReader looks up the settlement receipt.
type SettlementReader interface {
	GetSettlement(ctx context.Context) (*domain.Settlement, error)
}

// Result labels for a keeper tick.
const (
	ResultSettled        = "settled"
	ResultAlreadySettled = "already_settled"
	ResultNotDue         = "not_due"
	ResultNotAllowed     = "not_allowed"
	ResultError          = "error"
)

// Keeper periodically attempts settlement on behalf of a configured principal.
// Settlement is gated by the ledger itself, so early or repeated attempts are harmless.
type Keeper struct {
	settler     Settler
	settlements SettlementReader
	principal   domain.Principal
	interval    time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// Config for Keeper.
type Config struct {
	Settler     Settler
	// Settlements, when set, lets the keeper stop once another principal has settled.
	Settlements SettlementReader
	Principal   domain.Identity
	Interval    time.Duration
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// New creates a Keeper.
func New(cfg Config) *Keeper {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}

	return &Keeper{
		settler:     cfg.Settler,
		settlements: cfg.Settlements,
		principal:   domain.Principal{Identity: cfg.Principal},
		interval:    cfg.Interval,
		logger:      cfg.Logger.With().Str("component", "keeper").Logger(),
		metrics:     cfg.Metrics,
	}
}

// Start ticks until ctx is cancelled or the charity has been settled.
func (k *Keeper) Start(ctx context.Context) error {
	k.logger.Info().
		Str("principal", k.principal.Identity.String()).
		Dur("interval", k.interval).
		Msg("keeper started")

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		switch k.Tick(ctx) {
		case ResultSettled, ResultAlreadySettled:
			k.logger.Info().Msg("charity settled, keeper stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			k.logger.Info().Msg("keeper shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick makes one settlement attempt and reports its outcome.
func (k *Keeper) Tick(ctx context.Context) string {
	ctx = domain.WithPrincipal(ctx, k.principal)

	settlement, err := k.settler.Settle(ctx)

	var result string
	switch {
	case err == nil:
		result = ResultSettled
		k.logger.Info().
			Str("settlement_id", settlement.ID).
			Uint64("amount", settlement.Amount).
			Msg("settlement executed")
	case errors.Is(err, domain.ErrNotDueDate):
		result = ResultNotDue
		k.logger.Debug().Msg("deadline not reached")
	case errors.Is(err, domain.ErrDonationsNotAllowed) && k.settledElsewhere(ctx):
		result = ResultAlreadySettled
		k.logger.Info().Msg("charity already settled by another principal")
	case errors.Is(err, domain.ErrDonationsNotAllowed):
		result = ResultNotAllowed
		k.logger.Debug().Err(err).Msg("charity not settleable")
	default:
		result = ResultError
		k.logger.Error().Err(err).Msg("settlement attempt failed")
	}

	if k.metrics != nil {
		k.metrics.KeeperRuns.WithLabelValues(result).Inc()
	}

	return result
}

// settledElsewhere reports whether a settlement receipt exists. A missing record
// also rejects settlement, so the closed window alone is not enough to stop.
func (k *Keeper) settledElsewhere(ctx context.Context) bool {
	if k.settlements == nil {
		return false
	}

	_, err := k.settlements.GetSettlement(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrSettlementNotFound):
		return false
	default:
		k.logger.Warn().Err(err).Msg("settlement lookup failed")
		return false
	}
}
