package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// KernelPayload is the attestation tuple the vault's claim entrypoint re-validates.
// Field order and names match the ABI tuple (auth, kernelResponses, kernelParams).
type KernelPayload struct {
	Auth            []byte
	KernelResponses []byte
	KernelParams    []byte
}

// GetVestingScheduleResp mirrors the outputs of getVestingSchedule(address).
type GetVestingScheduleResp struct {
	Token           common.Address
	TotalAmount     *big.Int
	StartTime       *big.Int
	CliffDuration   *big.Int
	VestingDuration *big.Int
	Creator         common.Address
	Active          bool
}

type ScheduleParams struct {
	Token             common.Address
	TotalAmount       *big.Int
	StartTime         uint64
	CliffDuration     uint64
	VestingDuration   uint64
	EligibleAddresses []common.Address
}
