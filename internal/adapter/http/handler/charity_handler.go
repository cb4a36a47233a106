package handler

import (
	"context"
	"net/http"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// LifecycleService opens the charity.
type LifecycleService interface {
	Initialize(ctx context.Context, input usecase.InitializeInput) (*usecase.InitializeResult, error)
}

// DonationService accepts donations.
type DonationService interface {
	Donate(ctx context.Context, amount uint64) (*domain.Donation, error)
}

// SettlementService runs the payout.
type SettlementService interface {
	Settle(ctx context.Context) (*domain.Settlement, error)
}

// QueryService serves read-only views.
type QueryService interface {
	GetCharityInfo(ctx context.Context) (*usecase.CharityInfo, error)
	ListDonations(ctx context.Context, limit, offset int) ([]*domain.Donation, error)
	GetSettlement(ctx context.Context) (*domain.Settlement, error)
}

// ReconciliationService builds consistency reports.
type ReconciliationService interface {
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// CharityHandler handles charity HTTP requests.
type CharityHandler struct {
	lifecycle      LifecycleService
	donations      DonationService
	settlement     SettlementService
	query          QueryService
	reconciliation ReconciliationService
}

// NewCharityHandler creates a new CharityHandler.
func NewCharityHandler(
	lifecycle LifecycleService,
	donations DonationService,
	settlement SettlementService,
	query QueryService,
	reconciliation ReconciliationService,
) *CharityHandler {
	return &CharityHandler{
		lifecycle:      lifecycle,
		donations:      donations,
		settlement:     settlement,
		query:          query,
		reconciliation: reconciliation,
	}
}

// Initialize opens the charity.
func (h *CharityHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req dto.InitializeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.lifecycle.Initialize(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to initialize charity", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InitializeFromResult(result))
}

// Donate deposits into the treasury.
func (h *CharityHandler) Donate(w http.ResponseWriter, r *http.Request) {
	var req dto.DonateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := req.BaseUnits()
	if err != nil {
		writeDomainError(w, r, "invalid amount", err)
		return
	}

	donation, err := h.donations.Donate(r.Context(), amount)
	if err != nil {
		writeDomainError(w, r, "failed to donate", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DonationFromDomain(donation))
}

// Settle pays the treasury out to the beneficiary.
func (h *CharityHandler) Settle(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.settlement.Settle(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to settle", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Get returns the charity snapshot.
func (h *CharityHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.query.GetCharityInfo(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to get charity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CharityFromInfo(info))
}

// ListDonations returns donation receipts, newest first.
func (h *CharityHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	limit, offset, _ := domain.ValidatePagination(
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)

	donations, err := h.query.ListDonations(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list donations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DonationListResponse{
		Donations: dto.DonationsFromDomain(donations),
		Limit:     limit,
		Offset:    offset,
	})
}

// GetSettlement returns the settlement receipt.
func (h *CharityHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.query.GetSettlement(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to get settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Reconcile returns the consistency report.
func (h *CharityHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromReport(report))
}
