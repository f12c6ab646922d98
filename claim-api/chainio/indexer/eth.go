package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const blockBatchSize = 100

type ETHIndexer struct {
	mu                 sync.Mutex
	client             LogSource
	contractABI        *abi.ABI
	contractAddress    common.Address
	startBlockHeight   uint64
	currentBlockHeight uint64
	isUpToDate         bool
	eventTypes         []common.Hash
	limiter            *rate.Limiter
	maxRetries         int
	pollInterval       time.Duration
	processingQueue    chan *Event
}

func NewETHIndexer(client LogSource, contractABI *abi.ABI, contractAddress common.Address, startBlockHeight uint64, eventTypes []common.Hash, rateLimit rate.Limit, maxRetries int) *ETHIndexer {
	return &ETHIndexer{
		client:             client,
		contractABI:        contractABI,
		contractAddress:    contractAddress,
		startBlockHeight:   startBlockHeight,
		currentBlockHeight: startBlockHeight,
		eventTypes:         eventTypes,
		limiter:            rate.NewLimiter(rateLimit, 1),
		maxRetries:         maxRetries,
		pollInterval:       5 * time.Second,
		processingQueue:    make(chan *Event, 1000),
	}
}

// WithPollInterval overrides how often new blocks are checked once caught up.
func (ei *ETHIndexer) WithPollInterval(d time.Duration) *ETHIndexer {
	ei.pollInterval = d
	return ei
}

func (ei *ETHIndexer) IsUpToDate() bool {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	return ei.isUpToDate
}

// Run syncs history then follows the chain head until ctx is done. The
// returned channel is closed when the indexer stops.
func (ei *ETHIndexer) Run(ctx context.Context) (chan *Event, error) {
	zap.L().Info("Indexer starting block height", zap.Uint64("block_height", ei.startBlockHeight))
	Go(func() {
		defer close(ei.processingQueue)
		if ei.syncHistoryBlocks(ctx) {
			ei.pollNewBlocks(ctx)
		}
	})
	return ei.processingQueue, nil
}

func (ei *ETHIndexer) syncHistoryBlocks(ctx context.Context) bool {
	zap.L().Info("Syncing historical blocks...")
	for {
		if ctx.Err() != nil {
			return false
		}
		latestHeight, err := ei.getLatestBlockHeight(ctx)
		if err != nil {
			zap.L().Error("Error getting latest block height", zap.Error(err))
			if !sleep(ctx, ei.pollInterval) {
				return false
			}
			continue
		}

		current := ei.height()
		if current > latestHeight {
			ei.mu.Lock()
			ei.isUpToDate = true
			ei.mu.Unlock()
			zap.L().Info("Caught up with the latest block", zap.Uint64("block_height", latestHeight))
			return true
		}

		endHeight := current + blockBatchSize
		if endHeight > latestHeight {
			endHeight = latestHeight
		}

		if err = ei.processBlockRange(ctx, current, endHeight); err != nil {
			zap.L().Error("Error processing block range", zap.Error(err))
			if !sleep(ctx, ei.pollInterval) {
				return false
			}
		}
	}
}

func (ei *ETHIndexer) pollNewBlocks(ctx context.Context) {
	zap.L().Info("Starting to poll for new blocks...")
	ticker := time.NewTicker(ei.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			latestHeight, err := ei.getLatestBlockHeight(ctx)
			if err != nil {
				zap.L().Error("Error getting latest block height", zap.Error(err))
				continue
			}

			if current := ei.height(); latestHeight >= current {
				if err = ei.processBlockRange(ctx, current, latestHeight); err != nil {
					zap.L().Error("Error processing new blocks", zap.Error(err))
				}
			}
		}
	}
}

func (ei *ETHIndexer) getLatestBlockHeight(ctx context.Context) (uint64, error) {
	var lastErr error
	for retry := 0; retry < ei.maxRetries; retry++ {
		if err := ei.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit error: %w", err)
		}

		latestBlockHeight, err := ei.client.BlockNumber(ctx)
		if err == nil {
			return latestBlockHeight, nil
		}
		lastErr = err
		zap.L().Warn("Error getting latest block height", zap.Int("attempt", retry+1), zap.Int("max_retries", ei.maxRetries), zap.Error(err))
		if !sleep(ctx, time.Duration(retry+1)*100*time.Millisecond) {
			return 0, ctx.Err()
		}
	}

	return 0, fmt.Errorf("failed to get latest block height after %d attempts: %w", ei.maxRetries, lastErr)
}

func (ei *ETHIndexer) processBlockRange(ctx context.Context, startHeight, endHeight uint64) error {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(startHeight),
		ToBlock:   new(big.Int).SetUint64(endHeight),
		Addresses: []common.Address{ei.contractAddress},
		Topics:    [][]common.Hash{ei.eventTypes},
	}
	logs, err := ei.client.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("error fetching logs at startHeight %d endHeight %d: %w", startHeight, endHeight, err)
	}

	for _, item := range logs {
		if err = ei.processTxEvents(ctx, item); err != nil {
			return fmt.Errorf("error process log at blockNumber %d TxHash %s Index %d: %w", item.BlockNumber, item.TxHash.Hex(), item.Index, err)
		}
	}

	ei.mu.Lock()
	ei.currentBlockHeight = endHeight + 1
	ei.mu.Unlock()
	return nil
}

func (ei *ETHIndexer) processTxEvents(ctx context.Context, log types.Log) error {
	if len(log.Topics) == 0 {
		return nil
	}
	eventName := ""
	for _, event := range ei.contractABI.Events {
		if event.ID == log.Topics[0] {
			eventName = event.Name
			break
		}
	}
	if eventName == "" {
		return nil
	}
	result, err := ei.eventParser(eventName, log)
	if err != nil {
		return fmt.Errorf("failed to parse event %s: %w", eventName, err)
	}
	newEvent := &Event{
		BlockHeight: int64(log.BlockNumber),
		TxHash:      log.TxHash.Hex(),
		EventType:   eventName,
		AttrMap:     result,
	}
	select {
	case ei.processingQueue <- newEvent:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ei *ETHIndexer) eventParser(eventName string, log types.Log) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	event := ei.contractABI.Events[eventName]

	if err := ei.contractABI.UnpackIntoMap(result, eventName, log.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack log data: %w", err)
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(result, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse topics in event %s: %w", eventName, err)
	}

	return result, nil
}

func (ei *ETHIndexer) height() uint64 {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	return ei.currentBlockHeight
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
