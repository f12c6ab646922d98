package io

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/logger"
	transactionprocess "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/transaction_process"
	"github.com/satlayer/vesting-claim/claim-api/signer"
)

type ETHChainIO interface {
	SendTransaction(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Receipt, error)
	ExecuteContract(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Transaction, error)
	SimulateContract(ctx context.Context, from common.Address, params types.ETHCallOptions) ([]byte, error)
	CallContract(ctx context.Context, params types.ETHCallOptions, result interface{}) error
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	GetLatestBlockTime(ctx context.Context) (uint64, error)
	GetChainID(ctx context.Context) (*big.Int, error)
	CreateAccount(pwd string) (accounts.Account, error)
	ImportKey(privateKeyHex string, pwd string) (accounts.Account, error)
	ListAccounts() []accounts.Account
	LockAccount(address common.Address) error
	SignHash(wallet types.ETHWallet, hash []byte) ([]byte, error)
	GetETHClient() *ethclient.Client
	Close()
}

type ethChainIO struct {
	client            *ethclient.Client
	signer            *signer.ETHSigner
	logger            logger.Logger
	metricsIndicators transactionprocess.Indicators
	params            types.TxManagerParams
	ks                *keystore.KeyStore
	chainID           *big.Int
	pollInterval      time.Duration
}

func NewETHChainIO(endpoint string, keystorePath string, logger logger.Logger, metricsIndicators transactionprocess.Indicators, params types.TxManagerParams) (ETHChainIO, error) {
	rpcClient, err := rpc.Dial(endpoint)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrNetwork, "failed to connect to ethereum node: %v", err)
	}
	return NewETHChainIOWithClient(rpcClient, keystorePath, logger, metricsIndicators, params)
}

// NewETHChainIOWithClient wraps an already dialled rpc client, such as an in-process one.
func NewETHChainIOWithClient(rpcClient *rpc.Client, keystorePath string, logger logger.Logger, metricsIndicators transactionprocess.Indicators, params types.TxManagerParams) (ETHChainIO, error) {
	client := ethclient.NewClient(rpcClient)
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrNetwork, "failed to retrieve chain ID: %v", err)
	}
	return &ethChainIO{
		client:            client,
		signer:            signer.NewETHSigner(client, chainID, params),
		logger:            logger,
		metricsIndicators: metricsIndicators,
		params:            params,
		ks:                keystore.NewKeyStore(keystorePath, keystore.LightScryptN, keystore.LightScryptP),
		chainID:           chainID,
		pollInterval:      time.Second,
	}, nil
}

// SendTransaction broadcasts exactly once and waits for the receipt. A
// transaction that was broadcast is never resubmitted here; a timed out wait
// leaves it to the caller to look the hash up.
func (e *ethChainIO) SendTransaction(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Receipt, error) {
	e.metricsIndicators.IncrementProcessingTxCount()
	defer e.metricsIndicators.DecrementProcessingTxCount()

	startTime := time.Now()
	txResp, err := e.ExecuteContract(ctx, params)
	if err != nil {
		e.logger.Warn("Failed to send transaction", logger.WithField("method", params.Method), logger.WithError(err))
		e.metricsIndicators.IncrementProcessedTxsTotal("failure")
		return nil, err
	}
	e.metricsIndicators.ObserveBroadcastLatencyMs(time.Since(startTime).Milliseconds())
	e.logger.Info("Transaction broadcast", logger.WithField("method", params.Method), logger.WithField("txHash", txResp.Hash().Hex()))

	receipt, err := e.waitForConfirmation(ctx, txResp.Hash())
	if err != nil {
		e.metricsIndicators.IncrementProcessedTxsTotal("failure")
		return nil, err
	}
	e.metricsIndicators.ObserveConfirmationLatencyMs(time.Since(startTime).Milliseconds())
	e.metricsIndicators.ObserveGasUsed(receipt.GasUsed)

	if receipt.Status == sdktypes.ReceiptStatusFailed {
		e.metricsIndicators.IncrementProcessedTxsTotal("reverted")
		reason := e.replayRevert(ctx, params, receipt.BlockNumber)
		return receipt, errorsmod.Wrapf(claimerr.ErrTransactionReverted, "tx %s: %s", receipt.TxHash.Hex(), reason)
	}
	e.metricsIndicators.IncrementProcessedTxsTotal("success")
	return receipt, nil
}

func (e *ethChainIO) waitForConfirmation(ctx context.Context, hash common.Hash) (*sdktypes.Receipt, error) {
	queryTicker := time.NewTicker(e.pollInterval)
	defer queryTicker.Stop()

	// Zero leaves the wait to ctx and the network.
	var timeout <-chan time.Time
	if e.params.ConfirmationTimeout > 0 {
		timeout = time.After(e.params.ConfirmationTimeout)
	}

	for {
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			e.logger.Debug("Receipt lookup failed", logger.WithField("txHash", hash.Hex()), logger.WithError(err))
		}

		select {
		case <-ctx.Done():
			return nil, errorsmod.Wrapf(ctx.Err(), "stopped waiting for transaction %s, it may still be mined", hash.Hex())
		case <-timeout:
			return nil, errorsmod.Wrapf(claimerr.ErrTimeout, "transaction %s not confirmed within %s", hash.Hex(), e.params.ConfirmationTimeout)
		case <-queryTicker.C:
			continue
		}
	}
}

// replayRevert re-executes a mined call at its block to recover the revert reason.
func (e *ethChainIO) replayRevert(ctx context.Context, params types.ETHExecuteOptions, block *big.Int) string {
	input, err := params.ContractABI.Pack(params.Method, params.Args...)
	if err != nil {
		return "unknown"
	}
	_, err = e.client.CallContract(ctx, ethereum.CallMsg{From: params.FromAddr, To: &params.ContractAddr, Data: input}, block)
	if err == nil {
		return "unknown"
	}
	if reason, ok := RevertReason(err, params.ContractABI); ok {
		return reason
	}
	return err.Error()
}

func (e *ethChainIO) ExecuteContract(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Transaction, error) {
	input, err := packCall(params.ETHCallOptions)
	if err != nil {
		return nil, err
	}

	auth, err := e.getTransactor(params.FromAddr, params.PWD)
	if err != nil {
		return nil, err
	}
	signedTx, err := e.signer.SignTx(ctx, auth.Signer, params.FromAddr, params.ContractAddr, input)
	if err != nil {
		return nil, classify(err, params.ContractABI, claimerr.ErrSimulationReverted)
	}
	if err = e.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, classify(err, params.ContractABI, nil)
	}
	return signedTx, nil
}

// SimulateContract dry-runs a state changing call from the given sender
// against the latest state and returns the raw output.
func (e *ethChainIO) SimulateContract(ctx context.Context, from common.Address, params types.ETHCallOptions) ([]byte, error) {
	input, err := packCall(params)
	if err != nil {
		return nil, err
	}
	output, err := e.client.CallContract(ctx, ethereum.CallMsg{From: from, To: &params.ContractAddr, Data: input}, nil)
	if err != nil {
		return nil, classify(err, params.ContractABI, claimerr.ErrSimulationReverted)
	}
	return output, nil
}

func (e *ethChainIO) CallContract(ctx context.Context, params types.ETHCallOptions, result interface{}) error {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("result must be a non-nil pointer")
	}

	input, err := params.ContractABI.Pack(params.Method, params.Args...)
	if err != nil {
		return errorsmod.Wrapf(claimerr.ErrEncoding, "failed to pack input: %v", err)
	}
	msg := ethereum.CallMsg{
		To:   &params.ContractAddr,
		Data: input,
	}

	output, err := e.client.CallContract(ctx, msg, nil)
	if err != nil {
		return classify(err, params.ContractABI, claimerr.ErrSimulationReverted)
	}

	if err = params.ContractABI.UnpackIntoInterface(result, params.Method, output); err != nil {
		return errorsmod.Wrapf(claimerr.ErrEncoding, "failed to unpack %s output: %v", params.Method, err)
	}
	return nil
}

func (e *ethChainIO) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	n, err := e.client.BlockNumber(ctx)
	if err != nil {
		return 0, classify(err, nil, nil)
	}
	return n, nil
}

// GetLatestBlockTime is the chain's notion of now, used for vesting math.
func (e *ethChainIO) GetLatestBlockTime(ctx context.Context) (uint64, error) {
	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, classify(err, nil, nil)
	}
	return head.Time, nil
}

func (e *ethChainIO) GetChainID(ctx context.Context) (*big.Int, error) {
	return e.client.ChainID(ctx)
}

func (e *ethChainIO) CreateAccount(pwd string) (accounts.Account, error) {
	return e.ks.NewAccount(pwd)
}

func (e *ethChainIO) ImportKey(privateKeyHex string, pwd string) (accounts.Account, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return accounts.Account{}, err
	}

	return e.ks.ImportECDSA(key, pwd)
}

func (e *ethChainIO) ListAccounts() []accounts.Account {
	return e.ks.Accounts()
}

func (e *ethChainIO) LockAccount(address common.Address) error {
	return e.ks.Lock(address)
}

func (e *ethChainIO) getTransactor(address common.Address, pwd string) (*bind.TransactOpts, error) {
	account := accounts.Account{Address: address}

	if _, err := e.ks.Find(account); err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}

	if err := e.ks.Unlock(account, pwd); err != nil {
		return nil, fmt.Errorf("failed to unlock account: %w", err)
	}

	return bind.NewKeyStoreTransactorWithChainID(e.ks, account, e.chainID)
}

func (e *ethChainIO) SignHash(wallet types.ETHWallet, hash []byte) ([]byte, error) {
	account := accounts.Account{Address: wallet.FromAddr}

	if _, err := e.ks.Find(account); err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}
	return e.ks.SignHashWithPassphrase(account, wallet.PWD, hash)
}

func (e *ethChainIO) GetETHClient() *ethclient.Client {
	return e.client
}

func (e *ethChainIO) Close() {
	e.client.Close()
	e.signer = nil
	e.ks = nil
}

func packCall(params types.ETHCallOptions) ([]byte, error) {
	if params.ContractAddr == (common.Address{}) {
		return nil, errorsmod.Wrap(claimerr.ErrEncoding, "contract address cannot be zero address")
	}
	if params.ContractABI == nil {
		return nil, errorsmod.Wrap(claimerr.ErrEncoding, "contract abi is required")
	}
	if _, exists := params.ContractABI.Methods[params.Method]; !exists {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "method %s not found in ABI", params.Method)
	}
	input, err := params.ContractABI.Pack(params.Method, params.Args...)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "failed to pack input: %v", err)
	}
	return input, nil
}
