// Package orchestrator sequences one vault operation: encode, approve if the
// allowance is short, obtain and verify an attestation for claims, simulate,
// then submit exactly once. Transition holds the lifecycle rules; Orchestrator
// performs the I/O each state asks for.
package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/satlayer/vesting-claim/claim-api/attestation"
	"github.com/satlayer/vesting-claim/claim-api/chainio/api"
	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/encoder"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
	"github.com/satlayer/vesting-claim/claim-api/logger"
	claimpipeline "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/claim_pipeline"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

type Vault interface {
	Address() common.Address
	GetVestingSchedule(ctx context.Context, token common.Address) (vesting.Schedule, error)
	Ledger(ctx context.Context, user, token common.Address) (vesting.LedgerEntry, error)
	Simulate(ctx context.Context, from common.Address, call api.VaultCall) error
	Send(ctx context.Context, wallet types.ETHWallet, call api.VaultCall) (*sdktypes.Receipt, error)
}

type Token interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, wallet types.ETHWallet, token, spender common.Address, amount *big.Int) (*sdktypes.Receipt, error)
}

type KernelExecutor interface {
	Execute(ctx context.Context, req kernel.Request) (*kernel.Bundle, error)
}

type Verifier interface {
	Verify(bundle *kernel.Bundle, expectedFunctionParams []byte, claimant common.Address) (*attestation.Attestation, error)
}

// Invalidator drops cached read-side state for a (user, token) pair.
type Invalidator interface {
	Invalidate(ctx context.Context, user, token common.Address) error
}

// Notifier is told about every finished run.
type Notifier interface {
	Publish(ctx context.Context, outcome *Outcome) error
}

// ConfirmFunc is asked before each broadcast, standing in for a wallet
// prompt. Returning false cancels the run.
type ConfirmFunc func(ctx context.Context, stage State, req Request) (bool, error)

// Observer sees every state change of a run.
type Observer func(id string, from, to State)

type KernelConfig struct {
	EntryID     string
	AccessToken string
	KernelID    *big.Int
}

type Orchestrator struct {
	Vault     Vault
	Token     Token
	Kernel    KernelExecutor
	Verifier  Verifier
	KernelCfg KernelConfig

	// Optional collaborators.
	Invalidator Invalidator
	Notifier    Notifier
	Confirm     ConfirmFunc
	Observer    Observer
	Tracker     *Tracker
	BlockTime   func(ctx context.Context) (uint64, error)

	Logger    logger.Logger
	Indicator claimpipeline.Indicators
}

// run carries the intermediate products of one attempt. Nothing in it
// outlives the attempt, attestations included.
type run struct {
	req            Request
	functionParams []byte
	kernelParams   []byte
	call           api.VaultCall
	bundle         *kernel.Bundle
	receipt        *sdktypes.Receipt
}

// Run drives req from Idle to a terminal state and returns the outcome.
// Each call is a fresh attempt starting from Encoding.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Outcome {
	outcome := &Outcome{
		Kind:    req.Kind,
		User:    req.User(),
		Token:   req.token(),
		Amount:  req.Amount,
		Started: time.Now(),
	}
	key := Key{Kind: req.Kind, User: req.User(), Token: req.token()}
	if o.Tracker != nil {
		id, err := o.Tracker.Begin(key)
		if err != nil {
			outcome.State = State{Stage: StageFailed, Err: err}
			o.finish(ctx, outcome)
			return outcome
		}
		outcome.ID = id
	}

	plan := PlanFor(req.Kind, req.DryRun)
	r := &run{req: req}
	state := State{Stage: StageIdle}
	ev := Event{Type: EventStart}
	for {
		next, effect, err := Transition(plan, state, ev)
		if err != nil {
			next, effect = State{Stage: StageFailed, Approval: state.Approval, Err: err}, EffectNone
		}
		o.observe(outcome.ID, key, state, next)
		state = next
		if effect == EffectInvalidate {
			o.invalidate(ctx, req.User(), req.token())
		}
		if state.Terminal() {
			break
		}
		ev = o.perform(ctx, effect, r)
	}

	outcome.State = state
	if r.receipt != nil {
		outcome.TxHash = r.receipt.TxHash
	}
	o.finish(ctx, outcome)
	return outcome
}

func (o *Orchestrator) perform(ctx context.Context, effect Effect, r *run) Event {
	var (
		ev  Event
		err error
	)
	switch effect {
	case EffectEncode:
		ev, err = o.encode(ctx, r)
	case EffectApprove:
		ev, err = o.approve(ctx, r)
	case EffectAdvance:
		ev = Event{Type: EventAdvance}
	case EffectRequestAttestation:
		ev, err = o.requestAttestation(ctx, r)
	case EffectVerify:
		ev, err = o.verify(r)
	case EffectSimulate:
		ev, err = o.simulate(ctx, r)
	case EffectSubmit:
		ev, err = o.submit(ctx, r)
	default:
		err = errorsmod.Wrapf(claimerr.ErrInvalidTransition, "no work for effect %d", effect)
	}
	if err != nil {
		return Event{Type: EventFailed, Err: cancellation(ctx, err)}
	}
	return ev
}

func (o *Orchestrator) encode(ctx context.Context, r *run) (Event, error) {
	req := r.req
	if err := req.Validate(); err != nil {
		return Event{}, err
	}

	switch req.Kind {
	case KindClaim:
		fp, err := encoder.FunctionParams(req.Token, req.Amount)
		if err != nil {
			return Event{}, err
		}
		kp, err := encoder.KernelParams(req.Token, req.User())
		if err != nil {
			return Event{}, err
		}
		r.functionParams, r.kernelParams = fp, kp
		o.checkClaimable(ctx, req)
	case KindDeposit:
		r.call = api.DepositCall(req.Token, req.Amount)
	case KindWithdraw:
		r.call = api.WithdrawCall(req.Token, req.Amount)
	case KindCreateSchedule:
		r.call = api.CreateScheduleCall(*req.Schedule)
	}

	amount := req.ApprovalAmount()
	if amount == nil || req.DryRun {
		return Event{Type: EventEncoded}, nil
	}
	allowance, err := o.Token.Allowance(ctx, req.token(), req.User(), o.Vault.Address())
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventEncoded, ApprovalNeeded: allowance.Cmp(amount) < 0}, nil
}

// checkClaimable warns when the requested amount exceeds what the local
// vesting math allows. The vault's simulation stays authoritative.
func (o *Orchestrator) checkClaimable(ctx context.Context, req Request) {
	if o.BlockTime == nil {
		return
	}
	now, err := o.BlockTime(ctx)
	if err != nil {
		o.Logger.Debug("Skipping claimable precheck", logger.WithError(err))
		return
	}
	schedule, err := o.Vault.GetVestingSchedule(ctx, req.Token)
	if err != nil {
		o.Logger.Debug("Skipping claimable precheck", logger.WithError(err))
		return
	}
	entry, err := o.Vault.Ledger(ctx, req.User(), req.Token)
	if err != nil {
		o.Logger.Debug("Skipping claimable precheck", logger.WithError(err))
		return
	}
	claimable := vesting.ClaimableAmount(entry, schedule, now)
	if req.Amount.Cmp(claimable) > 0 {
		o.Logger.Warn("Claim exceeds locally computed claimable amount",
			logger.WithField("user", req.User().Hex()),
			logger.WithField("requested", req.Amount.String()),
			logger.WithField("claimable", claimable.String()))
	}
}

func (o *Orchestrator) approve(ctx context.Context, r *run) (Event, error) {
	if err := o.confirm(ctx, State{Stage: StageApproving, Approval: ApprovalSubmitting}, r.req); err != nil {
		return Event{}, err
	}
	receipt, err := o.Token.Approve(ctx, r.req.Wallet, r.req.token(), o.Vault.Address(), r.req.ApprovalAmount())
	if err != nil {
		return Event{}, err
	}
	if receipt.Status != sdktypes.ReceiptStatusSuccessful {
		return Event{}, errorsmod.Wrapf(claimerr.ErrTransactionReverted, "approval %s", receipt.TxHash.Hex())
	}
	return Event{Type: EventApprovalConfirmed}, nil
}

func (o *Orchestrator) requestAttestation(ctx context.Context, r *run) (Event, error) {
	bundle, err := o.Kernel.Execute(ctx, kernel.Request{
		EntryID:        o.KernelCfg.EntryID,
		AccessToken:    o.KernelCfg.AccessToken,
		KernelID:       o.KernelCfg.KernelID,
		Sender:         r.req.User(),
		KernelParams:   r.kernelParams,
		FunctionParams: r.functionParams,
	})
	if err != nil {
		return Event{}, err
	}
	r.bundle = bundle
	return Event{Type: EventAttested}, nil
}

func (o *Orchestrator) verify(r *run) (Event, error) {
	att, err := o.Verifier.Verify(r.bundle, r.functionParams, r.req.User())
	if err != nil {
		return Event{}, err
	}
	r.call = api.ClaimCall(att.Payload, r.req.Token, r.req.Amount)
	return Event{Type: EventVerified}, nil
}

func (o *Orchestrator) simulate(ctx context.Context, r *run) (Event, error) {
	if err := o.Vault.Simulate(ctx, r.req.User(), r.call); err != nil {
		if claimerr.Reason(err) == "unknown" && !claimerr.IsCancellation(err) {
			err = errorsmod.Wrap(claimerr.ErrSimulationReverted, err.Error())
		}
		return Event{}, err
	}
	return Event{Type: EventSimulated}, nil
}

func (o *Orchestrator) submit(ctx context.Context, r *run) (Event, error) {
	if err := o.confirm(ctx, State{Stage: StageSubmitting}, r.req); err != nil {
		return Event{}, err
	}
	receipt, err := o.Vault.Send(ctx, r.req.Wallet, r.call)
	if receipt != nil {
		r.receipt = receipt
	}
	if err != nil {
		return Event{}, err
	}
	if receipt.Status != sdktypes.ReceiptStatusSuccessful {
		return Event{}, errorsmod.Wrapf(claimerr.ErrTransactionReverted, "tx %s", receipt.TxHash.Hex())
	}
	return Event{Type: EventSubmitted}, nil
}

func (o *Orchestrator) confirm(ctx context.Context, s State, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.Confirm == nil {
		return nil
	}
	ok, err := o.Confirm(ctx, s, req)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(claimerr.ErrUserCancelled, "declined at %s", s)
	}
	return nil
}

func (o *Orchestrator) invalidate(ctx context.Context, user, token common.Address) {
	if o.Invalidator == nil {
		return
	}
	if err := o.Invalidator.Invalidate(context.WithoutCancel(ctx), user, token); err != nil {
		o.Logger.Warn("Failed to invalidate cached vault state",
			logger.WithField("user", user.Hex()), logger.WithField("token", token.Hex()), logger.WithError(err))
	}
}

func (o *Orchestrator) observe(id string, key Key, from, to State) {
	if to.Stage == StageFailed && o.Indicator != nil {
		o.Indicator.IncrementStageFailures(from.Stage.String(), claimerr.Reason(to.Err))
	}
	if o.Tracker != nil {
		o.Tracker.Update(key, id, to)
	}
	if o.Observer != nil {
		o.Observer(id, from, to)
	}
	o.Logger.Debug("Operation state changed", logger.WithField("id", id), logger.WithField("from", from.String()), logger.WithField("to", to.String()))
}

func (o *Orchestrator) finish(ctx context.Context, outcome *Outcome) {
	outcome.Duration = time.Since(outcome.Started)
	result := outcome.State.Stage.String()
	if o.Indicator != nil {
		o.Indicator.IncrementOperationsTotal(string(outcome.Kind), result)
		o.Indicator.ObserveOperationDurationSeconds(string(outcome.Kind), outcome.Duration.Seconds())
	}
	if err := outcome.Err(); err != nil {
		o.Logger.Warn("Operation failed",
			logger.WithField("id", outcome.ID), logger.WithField("kind", string(outcome.Kind)),
			logger.WithField("reason", claimerr.Reason(err)), logger.WithError(err))
	} else {
		o.Logger.Info("Operation finished",
			logger.WithField("id", outcome.ID), logger.WithField("kind", string(outcome.Kind)),
			logger.WithField("stage", result), logger.WithField("txHash", outcome.TxHash.Hex()))
	}
	if o.Notifier != nil {
		if err := o.Notifier.Publish(context.WithoutCancel(ctx), outcome); err != nil {
			o.Logger.Warn("Failed to publish operation outcome", logger.WithField("id", outcome.ID), logger.WithError(err))
		}
	}
}

// cancellation folds a caller abandoning the run into ErrUserCancelled.
func cancellation(ctx context.Context, err error) error {
	if errors.Is(err, claimerr.ErrUserCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return errorsmod.Wrap(claimerr.ErrUserCancelled, err.Error())
	}
	return err
}
