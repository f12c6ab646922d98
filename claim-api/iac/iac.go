// Package iac carries finished operation outcomes between processes over Kafka.
package iac

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
)

const DefaultTopic = "vestclaim.outcomes"

// OutcomeEvent is the wire form of orchestrator.Outcome.
type OutcomeEvent struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	User       common.Address `json:"user"`
	Token      common.Address `json:"token"`
	Amount     string         `json:"amount"`
	Stage      string         `json:"stage"`
	Reason     string         `json:"reason,omitempty"`
	Error      string         `json:"error,omitempty"`
	Retryable  bool           `json:"retryable"`
	TxHash     common.Hash    `json:"txHash"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMs int64          `json:"durationMs"`
}

func NewOutcomeEvent(o *orchestrator.Outcome) OutcomeEvent {
	ev := OutcomeEvent{
		ID:         o.ID,
		Kind:       string(o.Kind),
		User:       o.User,
		Token:      o.Token,
		Amount:     "0",
		Stage:      o.State.Stage.String(),
		TxHash:     o.TxHash,
		StartedAt:  o.Started,
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.Amount != nil {
		ev.Amount = o.Amount.String()
	}
	if err := o.Err(); err != nil {
		ev.Reason = claimerr.Reason(err)
		ev.Error = err.Error()
		ev.Retryable = claimerr.IsRetryable(err)
	}
	return ev
}

// Confirmed reports whether the event moved funds on chain.
func (e OutcomeEvent) Confirmed() bool {
	return e.Stage == orchestrator.StageConfirmed.String()
}

// PartitionKey keeps every event for one (user, token) on one partition.
func (e OutcomeEvent) PartitionKey() string {
	return strings.ToLower(e.User.Hex() + ":" + e.Token.Hex())
}

func (e OutcomeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalOutcomeEvent(data []byte) (OutcomeEvent, error) {
	var e OutcomeEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
