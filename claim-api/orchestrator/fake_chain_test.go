package orchestrator

import (
	"context"
	"math/big"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/satlayer/vesting-claim/claim-api/attestation"
	"github.com/satlayer/vesting-claim/claim-api/chainio/api"
	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/encoder"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

type pair struct {
	user  common.Address
	token common.Address
}

// fakeChain is an in-memory vault plus ERC20 with the vault's on-chain
// rules, including the atomic check-and-increment of claimed amounts.
type fakeChain struct {
	mu          sync.Mutex
	vault       common.Address
	now         uint64
	kernelID    *big.Int
	schedules   map[common.Address]vesting.Schedule
	deposits    map[pair]*big.Int
	claimed     map[pair]*big.Int
	allowances  map[pair]*big.Int
	simulations int
	sends       int
	approvals   int
	failOnChain bool
}

func newFakeChain(kernelID *big.Int) *fakeChain {
	return &fakeChain{
		vault:      common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
		kernelID:   kernelID,
		schedules:  map[common.Address]vesting.Schedule{},
		deposits:   map[pair]*big.Int{},
		claimed:    map[pair]*big.Int{},
		allowances: map[pair]*big.Int{},
	}
}

func (f *fakeChain) Address() common.Address { return f.vault }

func (f *fakeChain) GetVestingSchedule(_ context.Context, token common.Address) (vesting.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedules[token], nil
}

func (f *fakeChain) Ledger(_ context.Context, user, token common.Address) (vesting.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return vesting.LedgerEntry{Deposited: amountOf(f.deposits, pair{user, token}), Claimed: amountOf(f.claimed, pair{user, token})}, nil
}

func (f *fakeChain) BlockTime(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now, nil
}

func (f *fakeChain) Simulate(_ context.Context, from common.Address, call api.VaultCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulations++
	if reason := f.execute(from, call, false); reason != "" {
		return errorsmod.Wrap(claimerr.ErrSimulationReverted, reason)
	}
	return nil
}

func (f *fakeChain) Send(_ context.Context, wallet types.ETHWallet, call api.VaultCall) (*sdktypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	receipt := &sdktypes.Receipt{TxHash: common.BigToHash(big.NewInt(int64(f.sends))), Status: sdktypes.ReceiptStatusSuccessful}
	reason := f.execute(wallet.FromAddr, call, !f.failOnChain)
	if f.failOnChain {
		reason = "out of gas"
	}
	if reason != "" {
		receipt.Status = sdktypes.ReceiptStatusFailed
		return receipt, errorsmod.Wrap(claimerr.ErrTransactionReverted, reason)
	}
	return receipt, nil
}

func (f *fakeChain) Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return amountOf(f.allowances, pair{owner, token}), nil
}

func (f *fakeChain) Approve(_ context.Context, wallet types.ETHWallet, token, spender common.Address, amount *big.Int) (*sdktypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals++
	f.allowances[pair{wallet.FromAddr, token}] = new(big.Int).Set(amount)
	return &sdktypes.Receipt{Status: sdktypes.ReceiptStatusSuccessful}, nil
}

func (f *fakeChain) execute(from common.Address, call api.VaultCall, commit bool) string {
	switch call.Method {
	case "deposit":
		token, amount := call.Args[0].(common.Address), call.Args[1].(*big.Int)
		key := pair{from, token}
		if amountOf(f.allowances, key).Cmp(amount) < 0 {
			return "ERC20InsufficientAllowance"
		}
		if commit {
			f.allowances[key] = new(big.Int).Sub(f.allowances[key], amount)
			f.deposits[key] = new(big.Int).Add(amountOf(f.deposits, key), amount)
		}
	case "withdraw":
		token, amount := call.Args[0].(common.Address), call.Args[1].(*big.Int)
		key := pair{from, token}
		free := new(big.Int).Sub(amountOf(f.deposits, key), amountOf(f.claimed, key))
		if free.Cmp(amount) < 0 {
			return "InsufficientBalance"
		}
		if commit {
			f.deposits[key] = new(big.Int).Sub(f.deposits[key], amount)
		}
	case "createVestingSchedule":
		token, total := call.Args[0].(common.Address), call.Args[1].(*big.Int)
		if _, exists := f.schedules[token]; exists {
			return "ScheduleExists"
		}
		if amountOf(f.allowances, pair{from, token}).Cmp(total) < 0 {
			return "ERC20InsufficientAllowance"
		}
		if commit {
			f.schedules[token] = vesting.Schedule{
				Token:             token,
				TotalAmount:       total,
				StartTime:         call.Args[2].(*big.Int).Uint64(),
				CliffDuration:     call.Args[3].(*big.Int).Uint64(),
				VestingDuration:   call.Args[4].(*big.Int).Uint64(),
				EligibleAddresses: call.Args[5].([]common.Address),
				Creator:           from,
				Active:            true,
			}
		}
	case "claim":
		payload := call.Args[0].(types.KernelPayload)
		token, amount := call.Args[1].(common.Address), call.Args[2].(*big.Int)
		if reason := f.checkPayload(payload, from, token, amount); reason != "" {
			return reason
		}
		schedule, ok := f.schedules[token]
		if !ok || !schedule.IsEligible(from) {
			return "NotEligible"
		}
		key := pair{from, token}
		claimable := vesting.ClaimableAmount(vesting.LedgerEntry{Claimed: amountOf(f.claimed, key)}, schedule, f.now)
		if claimable.Cmp(amount) < 0 {
			return "InsufficientVested"
		}
		if commit {
			f.claimed[key] = new(big.Int).Add(amountOf(f.claimed, key), amount)
		}
	default:
		return "unknown method " + call.Method
	}
	return ""
}

// checkPayload is the vault's own re-validation of the attestation.
func (f *fakeChain) checkPayload(payload types.KernelPayload, from, token common.Address, amount *big.Int) string {
	params, err := attestation.DecodeKernelParams(payload.KernelParams)
	if err != nil {
		return "InvalidKernelParams"
	}
	fp, err := encoder.FunctionParams(token, amount)
	if err != nil {
		return "InvalidCall"
	}
	if params.Sender != from || common.Hash(params.FunctionParamsDigest) != encoder.Digest(fp) {
		return "AttestationMismatch"
	}
	return ""
}

func amountOf(m map[pair]*big.Int, key pair) *big.Int {
	if v, ok := m[key]; ok {
		return v
	}
	return new(big.Int)
}

// fakeOracle attests eligibility from a fixed set.
type fakeOracle struct {
	mu       sync.Mutex
	eligible map[common.Address]bool
	calls    int
	err      error
	// rewrite lets a test make the oracle attest something other than what was asked.
	rewrite func(req kernel.Request) kernel.Request
	onCall  func()
}

func (o *fakeOracle) Execute(ctx context.Context, req kernel.Request) (*kernel.Bundle, error) {
	o.mu.Lock()
	o.calls++
	err, rewrite, onCall := o.err, o.rewrite, o.onCall
	eligible := o.eligible[req.Sender]
	o.mu.Unlock()

	if onCall != nil {
		onCall()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if rewrite != nil {
		req = rewrite(req)
	}
	return attestation.BuildBundle(req, attestation.Verdict{Eligible: eligible}, nil)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	pairs []pair
	err   error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, user, token common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, pair{user, token})
	return r.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []*Outcome
}

func (r *recordingNotifier) Publish(_ context.Context, outcome *Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	return nil
}
