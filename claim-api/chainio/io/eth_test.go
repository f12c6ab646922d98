package io

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	chainioabi "github.com/satlayer/vesting-claim/claim-api/chainio/abi"
	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/logger"
	transactionprocess "github.com/satlayer/vesting-claim/claim-api/metrics/indicators/transaction_process"
)

type revertError struct {
	data string
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

// fakeEth serves the handful of eth_ methods the chain io needs.
type fakeEth struct {
	output  []byte
	callErr error
	calls   int
}

func (f *fakeEth) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(31337))
}

func (f *fakeEth) BlockNumber() hexutil.Uint64 {
	return 42
}

func (f *fakeEth) Call(args map[string]interface{}, block string) (hexutil.Bytes, error) {
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.output, nil
}

type ethIOTestSuite struct {
	suite.Suite
	backend  *fakeEth
	chainIO  ETHChainIO
	vaultABI *abi.ABI
	vault    common.Address
	user     common.Address
}

func (suite *ethIOTestSuite) SetupTest() {
	suite.backend = &fakeEth{}
	server := rpc.NewServer()
	suite.Require().NoError(server.RegisterName("eth", suite.backend))
	client := rpc.DialInProc(server)

	var err error
	suite.vaultABI, err = chainioabi.GetContractABI("", chainioabi.VestingVaultContract)
	suite.Require().NoError(err)
	indicators := transactionprocess.NewPromIndicators(prometheus.NewRegistry(), "vault")
	suite.chainIO, err = NewETHChainIOWithClient(client, suite.T().TempDir(), logger.NewMockELKLogger(), indicators, types.DefaultTxManagerParams())
	suite.Require().NoError(err)
	suite.vault = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	suite.user = common.HexToAddress("0xaA0851f2939EF2D8B51971B510383Fcb5c246a17")
}

func (suite *ethIOTestSuite) TearDownTest() {
	suite.chainIO.Close()
}

func (suite *ethIOTestSuite) claimOptions() types.ETHCallOptions {
	return types.ETHCallOptions{
		ContractAddr: suite.vault,
		ContractABI:  suite.vaultABI,
		Method:       "claim",
		Args: []interface{}{
			types.KernelPayload{Auth: []byte{1}, KernelResponses: []byte{2}, KernelParams: []byte{3}},
			common.HexToAddress("0x01"),
			big.NewInt(500),
		},
	}
}

func (suite *ethIOTestSuite) Test_ChainInfo() {
	chainID, err := suite.chainIO.GetChainID(context.Background())
	suite.Require().NoError(err)
	suite.Equal(int64(31337), chainID.Int64())

	n, err := suite.chainIO.GetLatestBlockNumber(context.Background())
	suite.Require().NoError(err)
	suite.Equal(uint64(42), n)
}

func (suite *ethIOTestSuite) Test_SimulateSuccess() {
	suite.backend.output = []byte{}
	_, err := suite.chainIO.SimulateContract(context.Background(), suite.user, suite.claimOptions())
	suite.NoError(err)
	suite.Equal(1, suite.backend.calls)
}

func (suite *ethIOTestSuite) Test_SimulateRevertWithReason() {
	stringTy, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack("not eligible")
	suite.Require().NoError(err)
	data := append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
	suite.backend.callErr = &revertError{data: hexutil.Encode(data)}

	_, err = suite.chainIO.SimulateContract(context.Background(), suite.user, suite.claimOptions())
	suite.ErrorIs(err, claimerr.ErrSimulationReverted)
	suite.ErrorContains(err, "not eligible")
	suite.False(claimerr.IsRetryable(err))
}

func (suite *ethIOTestSuite) Test_SimulateRevertWithCustomError() {
	custom := suite.vaultABI.Errors["InsufficientVested"]
	packed, err := custom.Inputs.Pack(big.NewInt(500), big.NewInt(1000))
	suite.Require().NoError(err)
	suite.backend.callErr = &revertError{data: hexutil.Encode(append(custom.ID[:4], packed...))}

	_, err = suite.chainIO.SimulateContract(context.Background(), suite.user, suite.claimOptions())
	suite.ErrorIs(err, claimerr.ErrSimulationReverted)
	suite.ErrorContains(err, "InsufficientVested")
}

func (suite *ethIOTestSuite) Test_SimulateRejectsBadCall() {
	opts := suite.claimOptions()
	opts.Method = "missing"
	_, err := suite.chainIO.SimulateContract(context.Background(), suite.user, opts)
	suite.ErrorIs(err, claimerr.ErrEncoding)

	opts = suite.claimOptions()
	opts.ContractAddr = common.Address{}
	_, err = suite.chainIO.SimulateContract(context.Background(), suite.user, opts)
	suite.ErrorIs(err, claimerr.ErrEncoding)
	suite.Equal(0, suite.backend.calls)
}

func (suite *ethIOTestSuite) Test_CallContract() {
	out, err := suite.vaultABI.Methods["claims"].Outputs.Pack(big.NewInt(250))
	suite.Require().NoError(err)
	suite.backend.output = out

	var claimed *big.Int
	err = suite.chainIO.CallContract(context.Background(), types.ETHCallOptions{
		ContractAddr: suite.vault,
		ContractABI:  suite.vaultABI,
		Method:       "claims",
		Args:         []interface{}{suite.user, common.HexToAddress("0x01")},
	}, &claimed)
	suite.Require().NoError(err)
	suite.Equal("250", claimed.String())

	err = suite.chainIO.CallContract(context.Background(), types.ETHCallOptions{}, nil)
	suite.Error(err)
}

func (suite *ethIOTestSuite) Test_Accounts() {
	account, err := suite.chainIO.CreateAccount("secret")
	suite.Require().NoError(err)
	suite.Len(suite.chainIO.ListAccounts(), 1)

	hash := crypto.Keccak256([]byte("payload"))
	sig, err := suite.chainIO.SignHash(types.ETHWallet{FromAddr: account.Address, PWD: "secret"}, hash)
	suite.Require().NoError(err)
	pub, err := crypto.SigToPub(hash, sig)
	suite.Require().NoError(err)
	suite.Equal(account.Address, crypto.PubkeyToAddress(*pub))

	_, err = suite.chainIO.SignHash(types.ETHWallet{FromAddr: common.HexToAddress("0x02"), PWD: "secret"}, hash)
	suite.Error(err)
}

func (suite *ethIOTestSuite) Test_Classify() {
	err := classify(context.DeadlineExceeded, nil, claimerr.ErrSimulationReverted)
	suite.ErrorIs(err, claimerr.ErrTimeout)

	err = classify(errors.New("connection refused"), nil, claimerr.ErrSimulationReverted)
	suite.ErrorIs(err, claimerr.ErrNetwork)
	suite.True(claimerr.IsRetryable(err))

	err = classify(errors.New("execution reverted"), nil, claimerr.ErrSimulationReverted)
	suite.ErrorIs(err, claimerr.ErrSimulationReverted)

	err = classify(claimerr.ErrSimulationReverted, nil, nil)
	suite.ErrorIs(err, claimerr.ErrSimulationReverted)
	suite.False(claimerr.IsRetryable(err))

	_, ok := RevertReason(errors.New("plain"), nil)
	suite.False(ok)
}

func (suite *ethIOTestSuite) Test_ConfirmationTimeout() {
	e := suite.chainIO.(*ethChainIO)
	e.params.ConfirmationTimeout = 50 * time.Millisecond
	e.pollInterval = 10 * time.Millisecond
	_, err := e.waitForConfirmation(context.Background(), common.HexToHash("0x01"))
	suite.ErrorIs(err, claimerr.ErrTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.params.ConfirmationTimeout = time.Minute
	_, err = e.waitForConfirmation(ctx, common.HexToHash("0x01"))
	suite.True(claimerr.IsCancellation(err))
	suite.ErrorContains(err, common.HexToHash("0x01").Hex())

	e.params.ConfirmationTimeout = 0
	deadline, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	_, err = e.waitForConfirmation(deadline, common.HexToHash("0x01"))
	suite.ErrorIs(err, context.DeadlineExceeded)
}

func TestETHChainIO(t *testing.T) {
	suite.Run(t, new(ethIOTestSuite))
}
