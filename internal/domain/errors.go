package domain

import "errors"

var (
	// Lifecycle errors
	ErrInvalidBeneficiary = errors.New("invalid beneficiary")
	ErrAlreadyInitialized = errors.New("charity already initialized")
	ErrCharityNotFound    = errors.New("charity not found")

	// Donation window errors
	ErrDonationsNotAllowed = errors.New("donations are not allowed")
	ErrNotDueDate          = errors.New("deadline has not been reached")

	// Balance errors
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrOverflow           = errors.New("arithmetic overflow")
	ErrBalanceMismatch    = errors.New("treasury balance does not match expected value")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrAirdropDisabled    = errors.New("airdrop is disabled")

	// Identity errors
	ErrInvalidIdentity = errors.New("invalid identity")
)

// ErrorCode is the stable numeric code reported to API clients.
type ErrorCode int

// Codes start at 6000, the first custom error code of an on-chain program.
const (
	CodeUnknown ErrorCode = 0

	CodeNotDueDate          ErrorCode = 6000
	CodeDonationsNotAllowed ErrorCode = 6001
	CodeInvalidBeneficiary  ErrorCode = 6002
	CodeAlreadyInitialized  ErrorCode = 6003
	CodeInsufficientFunds   ErrorCode = 6004
	CodeOverflow            ErrorCode = 6005
	CodeInvalidAmount       ErrorCode = 6006
	CodeBalanceMismatch     ErrorCode = 6007
	CodeCharityNotFound     ErrorCode = 6008
	CodeWalletNotFound      ErrorCode = 6009
	CodeSettlementNotFound  ErrorCode = 6010
	CodeInvalidIdentity     ErrorCode = 6011
	CodeUnauthorized        ErrorCode = 6012
	CodeAirdropDisabled     ErrorCode = 6013
)

var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrNotDueDate, CodeNotDueDate},
	{ErrDonationsNotAllowed, CodeDonationsNotAllowed},
	{ErrInvalidBeneficiary, CodeInvalidBeneficiary},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrOverflow, CodeOverflow},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrBalanceMismatch, CodeBalanceMismatch},
	{ErrCharityNotFound, CodeCharityNotFound},
	{ErrWalletNotFound, CodeWalletNotFound},
	{ErrSettlementNotFound, CodeSettlementNotFound},
	{ErrInvalidIdentity, CodeInvalidIdentity},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrInvalidToken, CodeUnauthorized},
	{ErrExpiredToken, CodeUnauthorized},
	{ErrAirdropDisabled, CodeAirdropDisabled},
}

// CodeOf returns the code of the first known error in err's chain.
func CodeOf(err error) ErrorCode {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnknown
}
