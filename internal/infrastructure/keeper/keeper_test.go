package keeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

var keeperIdentity = domain.DeriveAddress(domain.Identity{3}, "keeper")

type scriptedSettler struct {
	mu      sync.Mutex
	results []error
	calls   int
	seen    []domain.Identity
}

func (s *scriptedSettler) Settle(ctx context.Context) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := domain.PrincipalFromContext(ctx); ok {
		s.seen = append(s.seen, p.Identity)
	}

	i := s.calls
	s.calls++
	if i >= len(s.results) {
		return nil, domain.ErrDonationsNotAllowed
	}
	if s.results[i] != nil {
		return nil, s.results[i]
	}
	return &domain.Settlement{ID: "settlement-1", Amount: 794_975}, nil
}

func TestTickClassifiesOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"settled", nil, ResultSettled},
		{"not due", domain.ErrNotDueDate, ResultNotDue},
		{"closed", domain.ErrDonationsNotAllowed, ResultNotAllowed},
		{"wrapped closed", errors.Join(errors.New("x"), domain.ErrDonationsNotAllowed), ResultNotAllowed},
		{"insufficient", domain.ErrInsufficientFunds, ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &scriptedSettler{results: []error{tt.err}}
			m := metrics.NewWithRegistry(prometheus.NewRegistry())
			k := New(Config{Settler: settler, Principal: keeperIdentity, Logger: zerolog.Nop(), Metrics: m})

			assert.Equal(t, tt.want, k.Tick(context.Background()))
			assert.Equal(t, float64(1), testutil.ToFloat64(m.KeeperRuns.WithLabelValues(tt.want)))
			require.Len(t, settler.seen, 1)
			assert.Equal(t, keeperIdentity, settler.seen[0])
		})
	}
}

func TestStartStopsAfterSettlement(t *testing.T) {
	settler := &scriptedSettler{results: []error{domain.ErrNotDueDate, domain.ErrNotDueDate, nil}}
	k := New(Config{Settler: settler, Principal: keeperIdentity, Interval: time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, k.Start(ctx))
	assert.Equal(t, 3, settler.calls)
}

type settlementLookup struct {
	settlement *domain.Settlement
	err        error
	calls      int
}

func (l *settlementLookup) GetSettlement(ctx context.Context) (*domain.Settlement, error) {
	l.calls++
	return l.settlement, l.err
}

func TestTickDetectsSettlementByAnotherPrincipal(t *testing.T) {
	tests := []struct {
		name   string
		lookup *settlementLookup
		want   string
	}{
		{"receipt exists", &settlementLookup{settlement: &domain.Settlement{ID: "s-1"}}, ResultAlreadySettled},
		{"not initialized", &settlementLookup{err: domain.ErrSettlementNotFound}, ResultNotAllowed},
		{"lookup fails", &settlementLookup{err: errors.New("db down")}, ResultNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &scriptedSettler{results: []error{domain.ErrDonationsNotAllowed}}
			k := New(Config{Settler: settler, Settlements: tt.lookup, Principal: keeperIdentity, Logger: zerolog.Nop()})

			assert.Equal(t, tt.want, k.Tick(context.Background()))
			assert.Equal(t, 1, tt.lookup.calls)
		})
	}
}

func TestStartStopsWhenSettledElsewhere(t *testing.T) {
	settler := &scriptedSettler{results: []error{domain.ErrNotDueDate, domain.ErrDonationsNotAllowed}}
	lookup := &settlementLookup{settlement: &domain.Settlement{ID: "s-1"}}
	k := New(Config{Settler: settler, Settlements: lookup, Principal: keeperIdentity, Interval: time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, k.Start(ctx))
	assert.Equal(t, 2, settler.calls)
}

func TestStartStopsOnCancel(t *testing.T) {
	settler := &scriptedSettler{}
	k := New(Config{Settler: settler, Principal: keeperIdentity, Interval: 5 * time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop after cancel")
	}
}
