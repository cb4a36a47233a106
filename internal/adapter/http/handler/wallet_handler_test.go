package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/domain"
)

type stubWalletService struct {
	getFn     func(ctx context.Context, owner string) (*domain.Wallet, error)
	airdropFn func(ctx context.Context, owner string, amount uint64) (*domain.Wallet, error)
}

func (s *stubWalletService) GetWallet(ctx context.Context, owner string) (*domain.Wallet, error) {
	if s.getFn != nil {
		return s.getFn(ctx, owner)
	}
	return nil, domain.ErrWalletNotFound
}

func (s *stubWalletService) Airdrop(ctx context.Context, owner string, amount uint64) (*domain.Wallet, error) {
	if s.airdropFn != nil {
		return s.airdropFn(ctx, owner, amount)
	}
	return nil, domain.ErrAirdropDisabled
}

func walletRouter(h *WalletHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/wallets/{owner}", h.Get)
	r.Post("/wallets/{owner}/airdrop", h.Airdrop)
	return r
}

func TestWalletHandler_Get(t *testing.T) {
	var gotOwner string
	svc := &stubWalletService{
		getFn: func(ctx context.Context, owner string) (*domain.Wallet, error) {
			gotOwner = owner
			return &domain.Wallet{Owner: testDonor, Balance: 1_500_000_000, Version: 2}, nil
		},
	}

	rr := httptest.NewRecorder()
	walletRouter(NewWalletHandler(svc)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallets/"+testDonor.String(), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotOwner != testDonor.String() {
		t.Fatalf("expected owner from path, got %q", gotOwner)
	}

	var resp dto.WalletResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != "1500000000" || resp.DisplayBalance != "1.5" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWalletHandler_GetUnknown(t *testing.T) {
	rr := httptest.NewRecorder()
	walletRouter(NewWalletHandler(&stubWalletService{})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallets/nobody", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWalletHandler_Airdrop(t *testing.T) {
	var gotAmount uint64
	svc := &stubWalletService{
		airdropFn: func(ctx context.Context, owner string, amount uint64) (*domain.Wallet, error) {
			gotAmount = amount
			return &domain.Wallet{Owner: testDonor, Balance: amount, Version: 1}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/wallets/"+testDonor.String()+"/airdrop", bytes.NewBufferString(`{"amount":"1000000000"}`))
	rr := httptest.NewRecorder()
	walletRouter(NewWalletHandler(svc)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotAmount != 1_000_000_000 {
		t.Fatalf("expected amount to be forwarded, got %d", gotAmount)
	}
}

func TestWalletHandler_AirdropDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/wallets/"+testDonor.String()+"/airdrop", bytes.NewBufferString(`{"amount":"1"}`))
	rr := httptest.NewRecorder()
	walletRouter(NewWalletHandler(&stubWalletService{})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
