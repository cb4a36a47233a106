package domain

import "time"

// Event types
const (
	EventTypeCharityInitialized = "charity.initialized"
	EventTypeDonationReceived   = "donation.received"
	EventTypeCharitySettled     = "charity.settled"
)

// Aggregate types
const (
	AggregateTypeCharity = "charity"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewCharityEvent builds an unpublished outbox event for the charity aggregate.
func NewCharityEvent(id string, charity Identity, eventType string, payload map[string]any, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   charity.String(),
		AggregateType: AggregateTypeCharity,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
}

// CharityInitializedEvent payload
type CharityInitializedEvent struct {
	Charity     string `json:"charity"`
	Treasury    string `json:"treasury"`
	Beneficiary string `json:"beneficiary"`
	Deadline    int64  `json:"deadline"`
	RentFunded  string `json:"rent_funded"`
}

// DonationReceivedEvent payload
type DonationReceivedEvent struct {
	DonationID string `json:"donation_id"`
	Donor      string `json:"donor"`
	Amount     string `json:"amount"`
	Total      string `json:"total"`
}

// CharitySettledEvent payload
type CharitySettledEvent struct {
	SettlementID string `json:"settlement_id"`
	Beneficiary  string `json:"beneficiary"`
	Amount       string `json:"amount"`
	FeeReserve   string `json:"fee_reserve"`
	RentReserve  string `json:"rent_reserve"`
}
