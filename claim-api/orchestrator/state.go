package orchestrator

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

type Stage int

const (
	StageIdle Stage = iota
	StageEncoding
	StageApproving
	StageAwaitingAttestation
	StageVerifying
	StageSimulating
	StageSubmitting
	StageConfirmed
	StageFailed
	// StageReady ends a dry run after a successful simulation.
	StageReady
)

var stageNames = map[Stage]string{
	StageIdle:                "idle",
	StageEncoding:            "encoding",
	StageApproving:           "approving",
	StageAwaitingAttestation: "awaiting_attestation",
	StageVerifying:           "verifying",
	StageSimulating:          "simulating",
	StageSubmitting:          "submitting",
	StageConfirmed:           "confirmed",
	StageFailed:              "failed",
	StageReady:               "ready",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ApprovalStage is the nested state of the allowance sub-transaction.
type ApprovalStage int

const (
	ApprovalNone ApprovalStage = iota
	ApprovalSubmitting
	ApprovalConfirmed
)

func (a ApprovalStage) String() string {
	switch a {
	case ApprovalSubmitting:
		return "submitting"
	case ApprovalConfirmed:
		return "confirmed"
	default:
		return "none"
	}
}

// State is the lifecycle of one operation attempt. Err is set only in StageFailed.
type State struct {
	Stage    Stage
	Approval ApprovalStage
	Err      error
}

func (s State) Terminal() bool {
	return s.Stage == StageConfirmed || s.Stage == StageFailed || s.Stage == StageReady
}

func (s State) String() string {
	switch {
	case s.Stage == StageApproving:
		return s.Stage.String() + "/" + s.Approval.String()
	case s.Stage == StageFailed && s.Err != nil:
		return s.Stage.String() + "(" + claimerr.Reason(s.Err) + ")"
	default:
		return s.Stage.String()
	}
}

// Plan is the fixed shape of an operation, decided before it starts.
type Plan struct {
	NeedsAttestation bool
	MayNeedApproval  bool
	DryRun           bool
}

func PlanFor(kind Kind, dryRun bool) Plan {
	return Plan{
		NeedsAttestation: kind == KindClaim,
		MayNeedApproval:  kind == KindDeposit || kind == KindCreateSchedule,
		DryRun:           dryRun,
	}
}

type EventType int

const (
	EventStart EventType = iota
	EventEncoded
	EventApprovalConfirmed
	EventAdvance
	EventAttested
	EventVerified
	EventSimulated
	EventSubmitted
	EventFailed
)

type Event struct {
	Type EventType
	// ApprovalNeeded accompanies EventEncoded when the allowance is short.
	ApprovalNeeded bool
	Err            error
}

// Effect is the work the runner must do after entering a state.
type Effect int

const (
	EffectNone Effect = iota
	EffectEncode
	EffectApprove
	EffectAdvance
	EffectRequestAttestation
	EffectVerify
	EffectSimulate
	EffectSubmit
	EffectInvalidate
)

// Transition is the pure lifecycle function. It never performs I/O.
func Transition(plan Plan, s State, ev Event) (State, Effect, error) {
	if s.Terminal() {
		return s, EffectNone, invalid(s, ev)
	}
	if ev.Type == EventFailed {
		if s.Stage == StageIdle {
			return s, EffectNone, invalid(s, ev)
		}
		err := ev.Err
		if err == nil {
			err = errorsmod.Wrap(claimerr.ErrInvalidTransition, "failure without a reason")
		}
		return State{Stage: StageFailed, Approval: s.Approval, Err: err}, EffectNone, nil
	}

	switch {
	case s.Stage == StageIdle && ev.Type == EventStart:
		return State{Stage: StageEncoding}, EffectEncode, nil

	case s.Stage == StageEncoding && ev.Type == EventEncoded:
		if ev.ApprovalNeeded {
			if !plan.MayNeedApproval {
				return s, EffectNone, invalid(s, ev)
			}
			return State{Stage: StageApproving, Approval: ApprovalSubmitting}, EffectApprove, nil
		}
		next, effect := afterApproval(plan, ApprovalNone)
		return next, effect, nil

	case s.Stage == StageApproving && s.Approval == ApprovalSubmitting && ev.Type == EventApprovalConfirmed:
		return State{Stage: StageApproving, Approval: ApprovalConfirmed}, EffectAdvance, nil

	case s.Stage == StageApproving && s.Approval == ApprovalConfirmed && ev.Type == EventAdvance:
		next, effect := afterApproval(plan, ApprovalConfirmed)
		return next, effect, nil

	case s.Stage == StageAwaitingAttestation && ev.Type == EventAttested:
		return State{Stage: StageVerifying, Approval: s.Approval}, EffectVerify, nil

	case s.Stage == StageVerifying && ev.Type == EventVerified:
		return State{Stage: StageSimulating, Approval: s.Approval}, EffectSimulate, nil

	case s.Stage == StageSimulating && ev.Type == EventSimulated:
		if plan.DryRun {
			return State{Stage: StageReady, Approval: s.Approval}, EffectNone, nil
		}
		return State{Stage: StageSubmitting, Approval: s.Approval}, EffectSubmit, nil

	case s.Stage == StageSubmitting && ev.Type == EventSubmitted:
		return State{Stage: StageConfirmed, Approval: s.Approval}, EffectInvalidate, nil
	}
	return s, EffectNone, invalid(s, ev)
}

func afterApproval(plan Plan, approval ApprovalStage) (State, Effect) {
	if plan.NeedsAttestation {
		return State{Stage: StageAwaitingAttestation, Approval: approval}, EffectRequestAttestation
	}
	return State{Stage: StageSimulating, Approval: approval}, EffectSimulate
}

func invalid(s State, ev Event) error {
	return errorsmod.Wrapf(claimerr.ErrInvalidTransition, "event %d in state %s", ev.Type, s)
}
