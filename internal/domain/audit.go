package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	Principal    string // Who performed the action
	Action       string // What action (charity.donate, charity.settle, etc.)
	ResourceType string // Type of resource (charity, wallet)
	ResourceID   string // Address of the resource
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionCharityInitialize AuditAction = "charity.initialize"
	AuditActionCharityDonate     AuditAction = "charity.donate"
	AuditActionCharitySettle     AuditAction = "charity.settle"
	AuditActionWalletAirdrop     AuditAction = "wallet.airdrop"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// Resource types
const (
	ResourceTypeCharity = "charity"
	ResourceTypeWallet  = "wallet"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// CharityState is the audit snapshot of a charity record.
type CharityState struct {
	Beneficiary        string `json:"beneficiary"`
	TotalDonations     string `json:"total_donations"`
	Deadline           int64  `json:"deadline"`
	DonationWindowOpen bool   `json:"donation_window_open"`
}

// StateOf returns the audit snapshot of c.
func StateOf(c *Charity) JSON {
	if c == nil {
		return nil
	}
	return MarshalState(CharityState{
		Beneficiary:        c.Beneficiary.String(),
		TotalDonations:     formatUint(c.TotalDonations),
		Deadline:           c.Deadline,
		DonationWindowOpen: c.DonationWindowOpen,
	})
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Principal    string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
