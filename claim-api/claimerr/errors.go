package claimerr

import (
	"context"
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const Codespace = "vestclaim"

var (
	ErrEncoding            = errorsmod.Register(Codespace, 2, "encoding error")
	ErrNetwork             = errorsmod.Register(Codespace, 3, "network error")
	ErrTimeout             = errorsmod.Register(Codespace, 4, "timeout")
	ErrOracleRejected      = errorsmod.Register(Codespace, 5, "oracle rejected request")
	ErrIneligible          = errorsmod.Register(Codespace, 6, "claimant not eligible")
	ErrParameterMismatch   = errorsmod.Register(Codespace, 7, "attested parameters do not match")
	ErrMalformedBundle     = errorsmod.Register(Codespace, 8, "malformed attestation bundle")
	ErrSimulationReverted  = errorsmod.Register(Codespace, 9, "simulation reverted")
	ErrTransactionReverted = errorsmod.Register(Codespace, 10, "transaction reverted")
	ErrUserCancelled       = errorsmod.Register(Codespace, 11, "user cancelled")
	ErrOperationInFlight   = errorsmod.Register(Codespace, 12, "operation already in flight")
	ErrInvalidTransition   = errorsmod.Register(Codespace, 13, "invalid state transition")
	ErrInvalidSchedule     = errorsmod.Register(Codespace, 14, "invalid vesting schedule")
)

// IsRetryable reports whether the user may retry the whole operation unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// IsCancellation reports whether err comes from the user abandoning the operation.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrUserCancelled) || errors.Is(err, context.Canceled)
}

// Reason returns the registered description of the taxonomy member err belongs to,
// or "unknown" for foreign errors.
func Reason(err error) string {
	for _, e := range []*errorsmod.Error{
		ErrEncoding, ErrNetwork, ErrTimeout, ErrOracleRejected, ErrIneligible,
		ErrParameterMismatch, ErrMalformedBundle, ErrSimulationReverted,
		ErrTransactionReverted, ErrUserCancelled, ErrOperationInFlight,
		ErrInvalidTransition, ErrInvalidSchedule,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "unknown"
}
