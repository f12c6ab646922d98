package claimerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		retryable bool
		cancelled bool
		reason    string
	}{
		{"network", errorsmod.Wrap(ErrNetwork, "dial"), true, false, "network error"},
		{"timeout", fmt.Errorf("kernel: %w", ErrTimeout), true, false, "timeout"},
		{"rejected", ErrOracleRejected, false, false, "oracle rejected request"},
		{"ineligible", errorsmod.Wrap(ErrIneligible, "not on list"), false, false, "claimant not eligible"},
		{"user cancelled", ErrUserCancelled, false, true, "user cancelled"},
		{"context cancelled", context.Canceled, false, true, "unknown"},
		{"foreign", errors.New("boom"), false, false, "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, IsRetryable(tc.err))
			assert.Equal(t, tc.cancelled, IsCancellation(tc.err))
			assert.Equal(t, tc.reason, Reason(tc.err))
		})
	}
}
