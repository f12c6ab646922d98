package kernel

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// Request asks the oracle to run one kernel for a sender. KernelParams is the
// input the kernel decides on; FunctionParams is the on-chain call payload the
// resulting attestation will authorize.
type Request struct {
	EntryID        string
	AccessToken    string
	KernelID       *big.Int
	Sender         common.Address
	KernelParams   []byte
	FunctionParams []byte
}

func (r Request) Validate() error {
	switch {
	case r.EntryID == "":
		return errorsmod.Wrap(claimerr.ErrEncoding, "entry id is required")
	case r.AccessToken == "":
		return errorsmod.Wrap(claimerr.ErrEncoding, "access token is required")
	case r.KernelID == nil || r.KernelID.Sign() < 0:
		return errorsmod.Wrap(claimerr.ErrEncoding, "kernel id is required")
	case len(r.KernelParams) == 0:
		return errorsmod.Wrap(claimerr.ErrEncoding, "kernel params are empty")
	case len(r.FunctionParams) == 0:
		return errorsmod.Wrap(claimerr.ErrEncoding, "function params are empty")
	}
	return nil
}

// Bundle is the oracle's attestation: an opaque authorization plus the
// parameters and responses it attests to.
type Bundle struct {
	Auth            []byte
	KernelParams    []byte
	KernelResponses []byte
}

type kernelCall struct {
	FunctionParams hexutil.Bytes `json:"functionParams"`
}

type executeRequest struct {
	SenderAddress common.Address        `json:"senderAddress"`
	KernelPayload map[string]kernelCall `json:"kernelPayload"`
}

type executeResponse struct {
	Auth            hexutil.Bytes `json:"auth"`
	KernelParams    hexutil.Bytes `json:"kernel_params"`
	KernelResponses hexutil.Bytes `json:"kernel_responses"`
}
