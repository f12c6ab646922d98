package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/satlayer/vesting-claim/claim-api/chainio/io"
	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
)

type ERC20 interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
	Symbol(ctx context.Context, token common.Address) (string, error)
	Approve(ctx context.Context, wallet types.ETHWallet, token, spender common.Address, amount *big.Int) (*sdktypes.Receipt, error)
}

type erc20Impl struct {
	io          io.ETHChainIO
	contractABI *abi.ABI
}

// NewERC20Impl binds the ERC20 ABI without a fixed address; every call names the token.
func NewERC20Impl(chainIO io.ETHChainIO, contractABI *abi.ABI) ERC20 {
	return &erc20Impl{io: chainIO, contractABI: contractABI}
}

func (e *erc20Impl) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var amount *big.Int
	if err := e.io.CallContract(ctx, e.callOptions(token, "allowance", owner, spender), &amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (e *erc20Impl) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	var amount *big.Int
	if err := e.io.CallContract(ctx, e.callOptions(token, "balanceOf", account), &amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (e *erc20Impl) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	var decimals uint8
	if err := e.io.CallContract(ctx, e.callOptions(token, "decimals"), &decimals); err != nil {
		return 0, err
	}
	return decimals, nil
}

func (e *erc20Impl) Symbol(ctx context.Context, token common.Address) (string, error) {
	var symbol string
	if err := e.io.CallContract(ctx, e.callOptions(token, "symbol"), &symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

func (e *erc20Impl) Approve(ctx context.Context, wallet types.ETHWallet, token, spender common.Address, amount *big.Int) (*sdktypes.Receipt, error) {
	return e.io.SendTransaction(ctx, types.ETHExecuteOptions{
		ETHWallet:      wallet,
		ETHCallOptions: e.callOptions(token, "approve", spender, amount),
	})
}

func (e *erc20Impl) callOptions(token common.Address, method string, args ...interface{}) types.ETHCallOptions {
	if args == nil {
		args = []interface{}{}
	}
	return types.ETHCallOptions{
		ContractAddr: token,
		ContractABI:  e.contractABI,
		Method:       method,
		Args:         args,
	}
}
