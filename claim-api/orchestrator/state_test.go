package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

func TestTransitionPaths(t *testing.T) {
	type step struct {
		ev     Event
		want   string
		effect Effect
	}
	testCases := []struct {
		name  string
		plan  Plan
		steps []step
	}{
		{
			name: "claim",
			plan: PlanFor(KindClaim, false),
			steps: []step{
				{Event{Type: EventStart}, "encoding", EffectEncode},
				{Event{Type: EventEncoded}, "awaiting_attestation", EffectRequestAttestation},
				{Event{Type: EventAttested}, "verifying", EffectVerify},
				{Event{Type: EventVerified}, "simulating", EffectSimulate},
				{Event{Type: EventSimulated}, "submitting", EffectSubmit},
				{Event{Type: EventSubmitted}, "confirmed", EffectInvalidate},
			},
		},
		{
			name: "deposit with approval",
			plan: PlanFor(KindDeposit, false),
			steps: []step{
				{Event{Type: EventStart}, "encoding", EffectEncode},
				{Event{Type: EventEncoded, ApprovalNeeded: true}, "approving/submitting", EffectApprove},
				{Event{Type: EventApprovalConfirmed}, "approving/confirmed", EffectAdvance},
				{Event{Type: EventAdvance}, "simulating", EffectSimulate},
				{Event{Type: EventSimulated}, "submitting", EffectSubmit},
				{Event{Type: EventSubmitted}, "confirmed", EffectInvalidate},
			},
		},
		{
			name: "withdraw",
			plan: PlanFor(KindWithdraw, false),
			steps: []step{
				{Event{Type: EventStart}, "encoding", EffectEncode},
				{Event{Type: EventEncoded}, "simulating", EffectSimulate},
				{Event{Type: EventSimulated}, "submitting", EffectSubmit},
				{Event{Type: EventSubmitted}, "confirmed", EffectInvalidate},
			},
		},
		{
			name: "claim dry run",
			plan: PlanFor(KindClaim, true),
			steps: []step{
				{Event{Type: EventStart}, "encoding", EffectEncode},
				{Event{Type: EventEncoded}, "awaiting_attestation", EffectRequestAttestation},
				{Event{Type: EventAttested}, "verifying", EffectVerify},
				{Event{Type: EventVerified}, "simulating", EffectSimulate},
				{Event{Type: EventSimulated}, "ready", EffectNone},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := State{}
			for _, st := range tc.steps {
				next, effect, err := Transition(tc.plan, s, st.ev)
				require.NoError(t, err)
				assert.Equal(t, st.want, next.String())
				assert.Equal(t, st.effect, effect)
				s = next
			}
			assert.True(t, s.Terminal())
		})
	}
}

func TestTransitionFailureFromAnyActiveStage(t *testing.T) {
	reason := errors.New("boom")
	for _, stage := range []Stage{StageEncoding, StageApproving, StageAwaitingAttestation, StageVerifying, StageSimulating, StageSubmitting} {
		t.Run(stage.String(), func(t *testing.T) {
			next, effect, err := Transition(PlanFor(KindClaim, false), State{Stage: stage}, Event{Type: EventFailed, Err: reason})
			require.NoError(t, err)
			assert.Equal(t, StageFailed, next.Stage)
			assert.Same(t, reason, next.Err)
			assert.Equal(t, EffectNone, effect)
		})
	}
}

func TestTransitionRejectsInvalidEvents(t *testing.T) {
	testCases := []struct {
		name string
		plan Plan
		s    State
		ev   Event
	}{
		{"skip encoding", PlanFor(KindClaim, false), State{Stage: StageIdle}, Event{Type: EventAttested}},
		{"fail from idle", PlanFor(KindClaim, false), State{Stage: StageIdle}, Event{Type: EventFailed, Err: errors.New("x")}},
		{"submit before simulate", PlanFor(KindClaim, false), State{Stage: StageVerifying}, Event{Type: EventSubmitted}},
		{"approval on claim", PlanFor(KindClaim, false), State{Stage: StageEncoding}, Event{Type: EventEncoded, ApprovalNeeded: true}},
		{"advance before approval confirmed", PlanFor(KindDeposit, false), State{Stage: StageApproving, Approval: ApprovalSubmitting}, Event{Type: EventAdvance}},
		{"restart confirmed", PlanFor(KindClaim, false), State{Stage: StageConfirmed}, Event{Type: EventStart}},
		{"event after failure", PlanFor(KindClaim, false), State{Stage: StageFailed, Err: claimerr.ErrNetwork}, Event{Type: EventSimulated}},
		{"event after ready", PlanFor(KindClaim, true), State{Stage: StageReady}, Event{Type: EventFailed, Err: claimerr.ErrNetwork}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, _, err := Transition(tc.plan, tc.s, tc.ev)
			assert.ErrorIs(t, err, claimerr.ErrInvalidTransition)
			assert.Equal(t, tc.s, next)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "failed(oracle rejected request)", State{Stage: StageFailed, Err: claimerr.ErrOracleRejected}.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
