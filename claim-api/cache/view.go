package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/logger"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

const keyPrefix = "vestclaim:"

// VaultReader is the read side of the vesting vault.
type VaultReader interface {
	GetVestingSchedule(ctx context.Context, token common.Address) (vesting.Schedule, error)
	Ledger(ctx context.Context, user, token common.Address) (vesting.LedgerEntry, error)
	IsEligible(ctx context.Context, token, user common.Address) (bool, error)
}

// View serves vault reads through a Store. Store failures fall back to the
// vault and are only logged.
type View struct {
	vault  VaultReader
	store  Store
	ttl    time.Duration
	clock  func(ctx context.Context) (uint64, error)
	logger logger.Logger
}

func NewView(vault VaultReader, store Store, ttl time.Duration, clock func(ctx context.Context) (uint64, error), logger logger.Logger) *View {
	return &View{vault: vault, store: store, ttl: ttl, clock: clock, logger: logger}
}

func ScheduleKey(token common.Address) string {
	return keyPrefix + "schedule:" + strings.ToLower(token.Hex())
}

func LedgerKey(user, token common.Address) string {
	return keyPrefix + "ledger:" + strings.ToLower(user.Hex()) + ":" + strings.ToLower(token.Hex())
}

func EligibilityKey(user, token common.Address) string {
	return keyPrefix + "eligible:" + strings.ToLower(user.Hex()) + ":" + strings.ToLower(token.Hex())
}

func (v *View) Schedule(ctx context.Context, token common.Address) (vesting.Schedule, error) {
	var s vesting.Schedule
	err := v.cached(ctx, ScheduleKey(token), &s, func() (interface{}, error) {
		return v.vault.GetVestingSchedule(ctx, token)
	})
	return s, err
}

func (v *View) Ledger(ctx context.Context, user, token common.Address) (vesting.LedgerEntry, error) {
	var e vesting.LedgerEntry
	err := v.cached(ctx, LedgerKey(user, token), &e, func() (interface{}, error) {
		return v.vault.Ledger(ctx, user, token)
	})
	return e, err
}

func (v *View) IsEligible(ctx context.Context, token, user common.Address) (bool, error) {
	var ok bool
	err := v.cached(ctx, EligibilityKey(user, token), &ok, func() (interface{}, error) {
		return v.vault.IsEligible(ctx, token, user)
	})
	return ok, err
}

// Now is the chain time used for vesting math.
func (v *View) Now(ctx context.Context) (uint64, error) {
	return v.clock(ctx)
}

func (v *View) Vested(ctx context.Context, token common.Address) (*big.Int, uint64, error) {
	s, err := v.Schedule(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	now, err := v.clock(ctx)
	if err != nil {
		return nil, 0, err
	}
	return vesting.VestedAmount(s, now), now, nil
}

// Claimable is what user could claim of token right now per local math.
func (v *View) Claimable(ctx context.Context, user, token common.Address) (*big.Int, error) {
	s, err := v.Schedule(ctx, token)
	if err != nil {
		return nil, err
	}
	e, err := v.Ledger(ctx, user, token)
	if err != nil {
		return nil, err
	}
	now, err := v.clock(ctx)
	if err != nil {
		return nil, err
	}
	return vesting.ClaimableAmount(e, s, now), nil
}

// Invalidate drops everything cached about (user, token). A zero user drops
// only the token's schedule.
func (v *View) Invalidate(ctx context.Context, user, token common.Address) error {
	keys := []string{ScheduleKey(token)}
	if user != (common.Address{}) {
		keys = append(keys, LedgerKey(user, token), EligibilityKey(user, token))
	}
	if err := v.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}

func (v *View) cached(ctx context.Context, key string, out interface{}, load func() (interface{}, error)) error {
	raw, ok, err := v.store.Get(ctx, key)
	if err != nil {
		v.logger.Warn("Cache read failed", logger.WithField("key", key), logger.WithError(err))
	}
	if ok {
		if err = json.Unmarshal(raw, out); err == nil {
			return nil
		}
		v.logger.Warn("Dropping undecodable cache entry", logger.WithField("key", key), logger.WithError(err))
	}

	value, err := load()
	if err != nil {
		return err
	}
	raw, err = json.Marshal(value)
	if err != nil {
		return err
	}
	if err = v.store.Set(ctx, key, raw, v.ttl); err != nil {
		v.logger.Warn("Cache write failed", logger.WithField("key", key), logger.WithError(err))
	}
	return json.Unmarshal(raw, out)
}
