package vesting

import (
	"math"
	"math/big"
	"math/bits"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// Schedule governs how much of a token allocation unlocks over time.
// Times are unix seconds, matching block timestamps.
type Schedule struct {
	Token             common.Address   `json:"token"`
	TotalAmount       *big.Int         `json:"totalAmount"`
	StartTime         uint64           `json:"startTime"`
	CliffDuration     uint64           `json:"cliffDuration"`
	VestingDuration   uint64           `json:"vestingDuration"`
	EligibleAddresses []common.Address `json:"eligibleAddresses,omitempty"`
	Creator           common.Address   `json:"creator"`
	Active            bool             `json:"active"`
}

// LedgerEntry is the per (user, token) deposit and claim record.
type LedgerEntry struct {
	Deposited *big.Int `json:"deposited"`
	Claimed   *big.Int `json:"claimed"`
}

func (s Schedule) Validate() error {
	if s.TotalAmount == nil || s.TotalAmount.Sign() <= 0 {
		return errorsmod.Wrap(claimerr.ErrInvalidSchedule, "total amount must be positive")
	}
	if s.CliffDuration > s.VestingDuration {
		return errorsmod.Wrapf(claimerr.ErrInvalidSchedule, "cliff %d exceeds vesting duration %d", s.CliffDuration, s.VestingDuration)
	}
	if _, overflow := addUint64(s.StartTime, s.CliffDuration, s.VestingDuration); overflow {
		return errorsmod.Wrap(claimerr.ErrInvalidSchedule, "schedule ends past the largest representable time")
	}
	return nil
}

// CliffEnd is the first instant at which tokens may vest. It saturates at
// math.MaxUint64.
func (s Schedule) CliffEnd() uint64 {
	end, _ := addUint64(s.StartTime, s.CliffDuration)
	return end
}

// UnlockTime is the instant at which the whole allocation is vested. It
// saturates at math.MaxUint64.
func (s Schedule) UnlockTime() uint64 {
	end, _ := addUint64(s.StartTime, s.CliffDuration, s.VestingDuration)
	return end
}

func addUint64(terms ...uint64) (uint64, bool) {
	var sum uint64
	for _, t := range terms {
		var carry uint64
		sum, carry = bits.Add64(sum, t, 0)
		if carry != 0 {
			return math.MaxUint64, true
		}
	}
	return sum, false
}

// IsEligible reports whether addr is in the schedule's eligible set.
func (s Schedule) IsEligible(addr common.Address) bool {
	for _, a := range s.EligibleAddresses {
		if a == addr {
			return true
		}
	}
	return false
}

// VestedAmount returns the amount unlocked at now. Nothing vests before the
// cliff elapses; after it the amount grows linearly over VestingDuration and
// is rounded down to the token's smallest unit.
func VestedAmount(s Schedule, now uint64) *big.Int {
	if s.TotalAmount == nil || s.TotalAmount.Sign() <= 0 {
		return new(big.Int)
	}
	cliffEnd := s.CliffEnd()
	if now < s.StartTime || now < cliffEnd {
		return new(big.Int)
	}
	if now >= s.UnlockTime() || s.VestingDuration == 0 {
		return new(big.Int).Set(s.TotalAmount)
	}
	elapsed := new(big.Int).SetUint64(now - cliffEnd)
	vested := new(big.Int).Mul(s.TotalAmount, elapsed)
	return vested.Quo(vested, new(big.Int).SetUint64(s.VestingDuration))
}

// ClaimableAmount is the vested amount not yet claimed. It is never negative.
func ClaimableAmount(e LedgerEntry, s Schedule, now uint64) *big.Int {
	claimable := VestedAmount(s, now)
	if e.Claimed != nil {
		claimable.Sub(claimable, e.Claimed)
	}
	if claimable.Sign() < 0 {
		return new(big.Int)
	}
	return claimable
}
