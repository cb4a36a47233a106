package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/domain"
)

// WalletService reads and funds wallets.
type WalletService interface {
	GetWallet(ctx context.Context, owner string) (*domain.Wallet, error)
	Airdrop(ctx context.Context, owner string, amount uint64) (*domain.Wallet, error)
}

// WalletHandler handles wallet HTTP requests.
type WalletHandler struct {
	wallets WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Get returns a wallet balance.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetWallet(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Airdrop credits a wallet from the development faucet.
func (h *WalletHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	var req dto.AirdropRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, err := req.BaseUnits()
	if err != nil {
		writeDomainError(w, r, "invalid amount", err)
		return
	}

	wallet, err := h.wallets.Airdrop(r.Context(), chi.URLParam(r, "owner"), amount)
	if err != nil {
		writeDomainError(w, r, "failed to airdrop", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}
