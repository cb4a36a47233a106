package errors_test

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcerrors "github.com/iho/charityledger/internal/adapter/grpc/errors"
	"github.com/iho/charityledger/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil error", nil, codes.OK},
		{"unauthorized", domain.ErrUnauthorized, codes.Unauthenticated},
		{"expired token", domain.ErrExpiredToken, codes.Unauthenticated},
		{"charity not found", domain.ErrCharityNotFound, codes.NotFound},
		{"settlement not found", domain.ErrSettlementNotFound, codes.NotFound},
		{"invalid beneficiary", domain.ErrInvalidBeneficiary, codes.InvalidArgument},
		{"invalid amount", domain.ErrInvalidAmount, codes.InvalidArgument},
		{"already initialized", domain.ErrAlreadyInitialized, codes.AlreadyExists},
		{"airdrop disabled", domain.ErrAirdropDisabled, codes.PermissionDenied},
		{"not due", domain.ErrNotDueDate, codes.FailedPrecondition},
		{"donations not allowed", fmt.Errorf("%w: closed", domain.ErrDonationsNotAllowed), codes.FailedPrecondition},
		{"insufficient funds", domain.ErrInsufficientFunds, codes.FailedPrecondition},
		{"overflow", domain.ErrOverflow, codes.FailedPrecondition},
		{"balance mismatch", domain.ErrBalanceMismatch, codes.Internal},
		{"deadline exceeded", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"status passthrough", status.Error(codes.Aborted, "busy"), codes.Aborted},
		{"unknown error", stdErrors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := grpcerrors.MapDomainError(tt.err)

			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}

			if status.Code(got) != tt.want {
				t.Fatalf("expected code %v, got %v", tt.want, status.Code(got))
			}
		})
	}
}

func TestMapDomainError_HidesInternalDetail(t *testing.T) {
	got := grpcerrors.MapDomainError(stdErrors.New("pq: connection reset by peer"))

	st, _ := status.FromError(got)
	if st.Message() != "an internal error occurred" {
		t.Fatalf("expected generic message, got %q", st.Message())
	}
}
