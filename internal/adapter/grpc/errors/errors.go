package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iho/charityledger/internal/domain"
)

// MapDomainError converts domain errors to appropriate gRPC status codes.
// Unknown errors become Internal without exposing their detail.
func MapDomainError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	// Unauthenticated
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return status.Error(codes.Unauthenticated, err.Error())

	// Not Found
	case errors.Is(err, domain.ErrCharityNotFound),
		errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrSettlementNotFound):
		return status.Error(codes.NotFound, err.Error())

	// Invalid Argument
	case errors.Is(err, domain.ErrInvalidBeneficiary),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidIdentity):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrAlreadyInitialized):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, domain.ErrAirdropDisabled):
		return status.Error(codes.PermissionDenied, err.Error())

	// Precondition Failed
	case errors.Is(err, domain.ErrNotDueDate),
		errors.Is(err, domain.ErrDonationsNotAllowed),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrOverflow):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "operation timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "operation was canceled")

	default:
		return status.Error(codes.Internal, "an internal error occurred")
	}
}
