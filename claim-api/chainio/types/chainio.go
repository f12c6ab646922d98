package types

import (
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ETHWallet identifies a keystore account and the passphrase that unlocks it.
type ETHWallet struct {
	FromAddr common.Address
	PWD      string
}

type ETHCallOptions struct {
	ContractAddr common.Address // ContractAddr: Address of the smart contract
	ContractABI  *abi.ABI       // ContractABI: Parsed ABI used to pack input and unpack output
	Method       string         // Method: Contract method name
	Args         []interface{}  // Args: Method arguments in ABI Go form
}

type ETHExecuteOptions struct {
	ETHWallet
	ETHCallOptions
}

type TxManagerParams struct {
	ConfirmationTimeout        time.Duration
	ETHGasFeeCapAdjustmentRate int64   // gasFeeCap = baseFee * rate + gasTipCap
	ETHGasLimitAdjustmentRate  float64 // multiplier applied to the estimated gas
	GasLimit                   uint64  // upper bound for the adjusted estimate
}

func DefaultTxManagerParams() TxManagerParams {
	return TxManagerParams{
		ConfirmationTimeout:        60 * time.Second,
		ETHGasFeeCapAdjustmentRate: 2,
		ETHGasLimitAdjustmentRate:  1.1,
		GasLimit:                   1000000000,
	}
}
