package signer

import (
	"context"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// Fees are the EIP-1559 caps for one vault transaction, in wei per gas.
type Fees struct {
	TipCap *big.Int
	FeeCap *big.Int
}

// ETHSigner prices, sizes and signs vault transactions. Node failures are
// returned unclassified so the caller can recover revert data from them.
type ETHSigner struct {
	client  bind.ContractTransactor
	chainID *big.Int
	params  types.TxManagerParams
}

func NewETHSigner(client bind.ContractTransactor, chainID *big.Int, params types.TxManagerParams) *ETHSigner {
	return &ETHSigner{client: client, chainID: chainID, params: params}
}

func (e *ETHSigner) SignTx(ctx context.Context, sign bind.SignerFn, from, vault common.Address, input []byte) (*sdktypes.Transaction, error) {
	tx, err := e.UnsignedTx(ctx, from, vault, input)
	if err != nil {
		return nil, err
	}
	signed, err := sign(from, tx)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "signing as %s: %v", from.Hex(), err)
	}
	return signed, nil
}

func (e *ETHSigner) UnsignedTx(ctx context.Context, from, vault common.Address, input []byte) (*sdktypes.Transaction, error) {
	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "pending nonce of %s", from.Hex())
	}
	fees, err := e.Fees(ctx)
	if err != nil {
		return nil, err
	}
	gas, err := e.Gas(ctx, ethereum.CallMsg{
		From:      from,
		To:        &vault,
		GasFeeCap: fees.FeeCap,
		GasTipCap: fees.TipCap,
		Data:      input,
	})
	if err != nil {
		return nil, err
	}
	return sdktypes.NewTx(&sdktypes.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: fees.TipCap,
		GasFeeCap: fees.FeeCap,
		Gas:       gas,
		To:        &vault,
		Data:      input,
	}), nil
}

// Fees sets FeeCap to baseFee * ETHGasFeeCapAdjustmentRate + TipCap.
func (e *ETHSigner) Fees(ctx context.Context) (Fees, error) {
	tip, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return Fees{}, errorsmod.Wrap(err, "suggesting gas tip cap")
	}
	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return Fees{}, errorsmod.Wrap(err, "reading latest header")
	}
	if head.BaseFee == nil {
		return Fees{}, errorsmod.Wrap(claimerr.ErrNetwork, "claim chain reports no base fee, EIP-1559 is required")
	}
	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(e.params.ETHGasFeeCapAdjustmentRate))
	return Fees{TipCap: tip, FeeCap: feeCap.Add(feeCap, tip)}, nil
}

// Gas is the node's estimate scaled by ETHGasLimitAdjustmentRate. Estimates
// above GasLimit are rejected before anything is signed.
func (e *ETHSigner) Gas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	estimate, err := e.client.EstimateGas(ctx, call)
	if err != nil {
		return 0, err
	}
	gas := uint64(float64(estimate) * e.params.ETHGasLimitAdjustmentRate)
	if e.params.GasLimit > 0 && gas > e.params.GasLimit {
		return 0, errorsmod.Wrapf(claimerr.ErrSimulationReverted, "gas %d exceeds limit %d", gas, e.params.GasLimit)
	}
	return gas, nil
}
