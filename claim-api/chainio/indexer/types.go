package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum"
)

type Event struct {
	BlockHeight int64
	TxHash      string
	EventType   string
	AttrMap     map[string]interface{}
}

// LogSource is the subset of an ethereum client the indexer polls.
type LogSource interface {
	ethereum.LogFilterer
	BlockNumber(ctx context.Context) (uint64, error)
}
