package api

import (
	"context"
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"

	"github.com/satlayer/vesting-claim/claim-api/chainio/indexer"
	"github.com/satlayer/vesting-claim/claim-api/chainio/io"
	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

// VaultCall is a state changing vault entrypoint with its ABI arguments.
type VaultCall struct {
	Method string
	Args   []interface{}
}

func ClaimCall(payload types.KernelPayload, token common.Address, amount *big.Int) VaultCall {
	return VaultCall{Method: "claim", Args: []interface{}{payload, token, amount}}
}

func DepositCall(token common.Address, amount *big.Int) VaultCall {
	return VaultCall{Method: "deposit", Args: []interface{}{token, amount}}
}

func WithdrawCall(token common.Address, amount *big.Int) VaultCall {
	return VaultCall{Method: "withdraw", Args: []interface{}{token, amount}}
}

func CreateScheduleCall(p types.ScheduleParams) VaultCall {
	eligible := p.EligibleAddresses
	if eligible == nil {
		eligible = []common.Address{}
	}
	return VaultCall{Method: "createVestingSchedule", Args: []interface{}{
		p.Token,
		p.TotalAmount,
		new(big.Int).SetUint64(p.StartTime),
		new(big.Int).SetUint64(p.CliffDuration),
		new(big.Int).SetUint64(p.VestingDuration),
		eligible,
	}}
}

type VestingVault interface {
	Address() common.Address

	GetVestingSchedule(ctx context.Context, token common.Address) (vesting.Schedule, error)
	GetVestedAmount(ctx context.Context, token common.Address) (*big.Int, error)
	IsEligible(ctx context.Context, token, user common.Address) (bool, error)
	Deposits(ctx context.Context, user, token common.Address) (*big.Int, error)
	Claims(ctx context.Context, user, token common.Address) (*big.Int, error)
	Ledger(ctx context.Context, user, token common.Address) (vesting.LedgerEntry, error)

	Simulate(ctx context.Context, from common.Address, call VaultCall) error
	Send(ctx context.Context, wallet types.ETHWallet, call VaultCall) (*sdktypes.Receipt, error)

	Indexer(client indexer.LogSource, startBlockHeight uint64, rateLimit rate.Limit, maxRetries int) *indexer.ETHIndexer
	EventHandler(ch chan *indexer.Event, onChange func(user, token common.Address, event *indexer.Event))
}

type vestingVaultImpl struct {
	io           io.ETHChainIO
	contractAddr common.Address
	contractABI  *abi.ABI
}

func NewVestingVaultImpl(chainIO io.ETHChainIO, contractAddr common.Address, contractABI *abi.ABI) VestingVault {
	return &vestingVaultImpl{
		io:           chainIO,
		contractAddr: contractAddr,
		contractABI:  contractABI,
	}
}

func (v *vestingVaultImpl) Address() common.Address {
	return v.contractAddr
}

func (v *vestingVaultImpl) GetVestingSchedule(ctx context.Context, token common.Address) (vesting.Schedule, error) {
	var resp types.GetVestingScheduleResp
	if err := v.io.CallContract(ctx, v.callOptions("getVestingSchedule", token), &resp); err != nil {
		return vesting.Schedule{}, err
	}
	for name, n := range map[string]*big.Int{"startTime": resp.StartTime, "cliffDuration": resp.CliffDuration, "vestingDuration": resp.VestingDuration} {
		if n == nil || !n.IsUint64() {
			return vesting.Schedule{}, errorsmod.Wrapf(claimerr.ErrEncoding, "schedule %s out of range: %v", name, n)
		}
	}
	return vesting.Schedule{
		Token:           resp.Token,
		TotalAmount:     resp.TotalAmount,
		StartTime:       resp.StartTime.Uint64(),
		CliffDuration:   resp.CliffDuration.Uint64(),
		VestingDuration: resp.VestingDuration.Uint64(),
		Creator:         resp.Creator,
		Active:          resp.Active,
	}, nil
}

func (v *vestingVaultImpl) GetVestedAmount(ctx context.Context, token common.Address) (*big.Int, error) {
	return v.callAmount(ctx, "getVestedAmount", token)
}

func (v *vestingVaultImpl) IsEligible(ctx context.Context, token, user common.Address) (bool, error) {
	var eligible bool
	if err := v.io.CallContract(ctx, v.callOptions("isEligible", token, user), &eligible); err != nil {
		return false, err
	}
	return eligible, nil
}

func (v *vestingVaultImpl) Deposits(ctx context.Context, user, token common.Address) (*big.Int, error) {
	return v.callAmount(ctx, "deposits", user, token)
}

func (v *vestingVaultImpl) Claims(ctx context.Context, user, token common.Address) (*big.Int, error) {
	return v.callAmount(ctx, "claims", user, token)
}

func (v *vestingVaultImpl) Ledger(ctx context.Context, user, token common.Address) (vesting.LedgerEntry, error) {
	deposited, err := v.Deposits(ctx, user, token)
	if err != nil {
		return vesting.LedgerEntry{}, err
	}
	claimed, err := v.Claims(ctx, user, token)
	if err != nil {
		return vesting.LedgerEntry{}, err
	}
	return vesting.LedgerEntry{Deposited: deposited, Claimed: claimed}, nil
}

func (v *vestingVaultImpl) Simulate(ctx context.Context, from common.Address, call VaultCall) error {
	_, err := v.io.SimulateContract(ctx, from, v.callOptions(call.Method, call.Args...))
	return err
}

func (v *vestingVaultImpl) Send(ctx context.Context, wallet types.ETHWallet, call VaultCall) (*sdktypes.Receipt, error) {
	return v.io.SendTransaction(ctx, types.ETHExecuteOptions{
		ETHWallet:      wallet,
		ETHCallOptions: v.callOptions(call.Method, call.Args...),
	})
}

func (v *vestingVaultImpl) Indexer(client indexer.LogSource, startBlockHeight uint64, rateLimit rate.Limit, maxRetries int) *indexer.ETHIndexer {
	eventTypes := make([]common.Hash, 0, 4)
	for _, name := range []string{"Deposited", "Claimed", "Withdrawn", "VestingScheduleCreated"} {
		eventTypes = append(eventTypes, v.contractABI.Events[name].ID)
	}
	return indexer.NewETHIndexer(client, v.contractABI, v.contractAddr, startBlockHeight, eventTypes, rateLimit, maxRetries)
}

// EventHandler drains ch and reports every (user, token) pair whose ledger or
// schedule changed. Schedule events carry no user and report the zero address.
func (v *vestingVaultImpl) EventHandler(ch chan *indexer.Event, onChange func(user, token common.Address, event *indexer.Event)) {
	for event := range ch {
		token, ok := event.AttrMap["token"].(common.Address)
		if !ok {
			continue
		}
		user, _ := event.AttrMap["user"].(common.Address)
		onChange(user, token, event)
	}
}

func (v *vestingVaultImpl) callOptions(method string, args ...interface{}) types.ETHCallOptions {
	if args == nil {
		args = []interface{}{}
	}
	return types.ETHCallOptions{
		ContractAddr: v.contractAddr,
		ContractABI:  v.contractABI,
		Method:       method,
		Args:         args,
	}
}

func (v *vestingVaultImpl) callAmount(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	var amount *big.Int
	if err := v.io.CallContract(ctx, v.callOptions(method, args...), &amount); err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, fmt.Errorf("%s returned no value", method)
	}
	return amount, nil
}
