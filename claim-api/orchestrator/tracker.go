package orchestrator

import (
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	claimpipeline "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/claim_pipeline"
)

// Key identifies a logical operation; at most one attempt per key runs at a time.
type Key struct {
	Kind  Kind
	User  common.Address
	Token common.Address
}

type Operation struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	User      string    `json:"user"`
	Token     string    `json:"token"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	key   Key
	state State
}

const (
	DefaultRetention   = 10 * time.Minute
	DefaultMaxFinished = 1024
)

type Tracker struct {
	mu        sync.Mutex
	ops       map[Key]*Operation
	indicator claimpipeline.Indicators
	now       func() time.Time

	// Retention is how long a finished attempt stays listed.
	Retention time.Duration
	// MaxFinished caps the finished attempts kept; the oldest are dropped first.
	MaxFinished int
}

func NewTracker(indicator claimpipeline.Indicators) *Tracker {
	return &Tracker{
		ops:         make(map[Key]*Operation),
		indicator:   indicator,
		now:         time.Now,
		Retention:   DefaultRetention,
		MaxFinished: DefaultMaxFinished,
	}
}

// Begin registers a new attempt for key. It fails while a previous attempt
// for the same key has not reached a terminal state.
func (t *Tracker) Begin(key Key) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if op, ok := t.ops[key]; ok && !op.state.Terminal() {
		return "", errorsmod.Wrapf(claimerr.ErrOperationInFlight, "%s for %s on %s is %s (id %s)", key.Kind, key.User.Hex(), key.Token.Hex(), op.state, op.ID)
	}
	now := t.now()
	t.prune(now)
	op := &Operation{
		ID:        uuid.NewString(),
		Kind:      key.Kind,
		User:      key.User.Hex(),
		Token:     key.Token.Hex(),
		StartedAt: now,
		UpdatedAt: now,
		key:       key,
	}
	op.setState(State{Stage: StageIdle}, now)
	t.ops[key] = op
	t.report()
	return op.ID, nil
}

// Update records the latest state of the attempt with the given id.
func (t *Tracker) Update(key Key, id string, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[key]
	if !ok || op.ID != id {
		return
	}
	now := t.now()
	op.setState(s, now)
	if s.Terminal() {
		t.prune(now)
	}
	t.report()
}

func (t *Tracker) Get(key Key) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[key]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Snapshot lists the latest attempt per key, newest first.
func (t *Tracker) Snapshot() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(t.now())
	out := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// prune drops finished attempts older than Retention, then the oldest
// finished ones beyond MaxFinished. Attempts still running are never dropped.
func (t *Tracker) prune(now time.Time) {
	finished := make([]*Operation, 0)
	for key, op := range t.ops {
		if !op.state.Terminal() {
			continue
		}
		if t.Retention > 0 && now.Sub(op.UpdatedAt) > t.Retention {
			delete(t.ops, key)
			continue
		}
		finished = append(finished, op)
	}
	if t.MaxFinished <= 0 || len(finished) <= t.MaxFinished {
		return
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].UpdatedAt.Before(finished[j].UpdatedAt) })
	for _, op := range finished[:len(finished)-t.MaxFinished] {
		delete(t.ops, op.key)
	}
}

func (t *Tracker) report() {
	if t.indicator == nil {
		return
	}
	n := 0
	for _, op := range t.ops {
		if !op.state.Terminal() {
			n++
		}
	}
	t.indicator.SetInFlightOperations(n)
}

func (op *Operation) setState(s State, at time.Time) {
	op.state = s
	op.Stage = s.String()
	op.Error = ""
	if s.Err != nil {
		op.Error = s.Err.Error()
	}
	op.UpdatedAt = at
}
