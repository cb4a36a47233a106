package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultCacheTTL bounds how stale a cached charity snapshot may be.
	DefaultCacheTTL = 5 * time.Second

	// SystemPrincipal is recorded in audit logs when no principal is attached.
	SystemPrincipal = "system"
)

// Operation names used for metrics and logs.
const (
	OpInitialize = "initialize"
	OpDonate     = "donate"
	OpSettle     = "settle"
	OpAirdrop    = "airdrop"
)
