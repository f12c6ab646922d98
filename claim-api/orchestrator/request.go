package orchestrator

import (
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

type Kind string

const (
	KindClaim          Kind = "claim"
	KindDeposit        Kind = "deposit"
	KindWithdraw       Kind = "withdraw"
	KindCreateSchedule Kind = "create_schedule"
)

// Request is one user action. The acting user is Wallet.FromAddr.
type Request struct {
	Kind     Kind
	Wallet   types.ETHWallet
	Token    common.Address
	Amount   *big.Int
	Schedule *types.ScheduleParams
	// DryRun stops after simulation; nothing is signed or broadcast.
	DryRun bool
}

func (r Request) User() common.Address {
	return r.Wallet.FromAddr
}

// Validate rejects requests that cannot be encoded. It does not consult chain state.
func (r Request) Validate() error {
	if r.Wallet.FromAddr == (common.Address{}) {
		return errorsmod.Wrap(claimerr.ErrEncoding, "sender address is required")
	}
	switch r.Kind {
	case KindClaim, KindDeposit, KindWithdraw:
		if r.Token == (common.Address{}) {
			return errorsmod.Wrap(claimerr.ErrEncoding, "token address is required")
		}
		if r.Amount == nil || r.Amount.Sign() <= 0 {
			return errorsmod.Wrapf(claimerr.ErrEncoding, "%s amount must be positive", r.Kind)
		}
	case KindCreateSchedule:
		if r.Schedule == nil {
			return errorsmod.Wrap(claimerr.ErrEncoding, "schedule parameters are required")
		}
		s := vesting.Schedule{
			Token:           r.Schedule.Token,
			TotalAmount:     r.Schedule.TotalAmount,
			StartTime:       r.Schedule.StartTime,
			CliffDuration:   r.Schedule.CliffDuration,
			VestingDuration: r.Schedule.VestingDuration,
		}
		if s.Token == (common.Address{}) {
			return errorsmod.Wrap(claimerr.ErrEncoding, "token address is required")
		}
		if err := s.Validate(); err != nil {
			return err
		}
	default:
		return errorsmod.Wrapf(claimerr.ErrEncoding, "unknown operation kind %q", r.Kind)
	}
	return nil
}

// ApprovalAmount is what the vault will pull from the user's token balance.
// It is nil for kinds that need no allowance.
func (r Request) ApprovalAmount() *big.Int {
	switch r.Kind {
	case KindDeposit:
		return r.Amount
	case KindCreateSchedule:
		if r.Schedule != nil {
			return r.Schedule.TotalAmount
		}
	}
	return nil
}

func (r Request) token() common.Address {
	if r.Kind == KindCreateSchedule && r.Schedule != nil {
		return r.Schedule.Token
	}
	return r.Token
}

// Outcome is the single user-facing result of a run.
type Outcome struct {
	ID       string
	Kind     Kind
	User     common.Address
	Token    common.Address
	Amount   *big.Int
	State    State
	TxHash   common.Hash
	Started  time.Time
	Duration time.Duration
}

func (o *Outcome) Err() error {
	return o.State.Err
}

func (o *Outcome) Succeeded() bool {
	return o.State.Stage == StageConfirmed || o.State.Stage == StageReady
}
