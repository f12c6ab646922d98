package attestation

import (
	"bytes"
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// KernelResponse is one (status, payload, note) entry of kernel_responses.
// An empty Err is an affirmative status.
type KernelResponse struct {
	KernelID *big.Int `abi:"kernelId"`
	Result   []byte   `abi:"result"`
	Err      string   `abi:"err"`
}

type KernelParam struct {
	KernelID *big.Int `abi:"kernelId"`
	Params   []byte   `abi:"params"`
}

// KernelParams is the oracle's echo of what it was asked to attest.
type KernelParams struct {
	Sender               common.Address `abi:"sender"`
	FunctionParamsDigest [32]byte       `abi:"functionParamsDigest"`
	Kernels              []KernelParam  `abi:"kernels"`
}

var (
	responsesArgs   abi.Arguments
	paramsArgs      abi.Arguments
	eligibilityArgs abi.Arguments
)

func init() {
	responsesTy, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "kernelId", Type: "uint256"},
		{Name: "result", Type: "bytes"},
		{Name: "err", Type: "string"},
	})
	if err != nil {
		panic(err)
	}
	kernelsTy, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "kernelId", Type: "uint256"},
		{Name: "params", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}
	addressTy, _ := abi.NewType("address", "", nil)
	bytes32Ty, _ := abi.NewType("bytes32", "", nil)
	boolTy, _ := abi.NewType("bool", "", nil)

	responsesArgs = abi.Arguments{{Name: "responses", Type: responsesTy}}
	paramsArgs = abi.Arguments{
		{Name: "sender", Type: addressTy},
		{Name: "functionParamsDigest", Type: bytes32Ty},
		{Name: "kernels", Type: kernelsTy},
	}
	eligibilityArgs = abi.Arguments{{Name: "eligible", Type: boolTy}}
}

func EncodeKernelResponses(responses []KernelResponse) ([]byte, error) {
	if responses == nil {
		responses = []KernelResponse{}
	}
	return responsesArgs.Pack(responses)
}

func EncodeKernelParams(p KernelParams) ([]byte, error) {
	if p.Kernels == nil {
		p.Kernels = []KernelParam{}
	}
	return paramsArgs.Pack(p.Sender, p.FunctionParamsDigest, p.Kernels)
}

func EncodeEligibility(eligible bool) ([]byte, error) {
	return eligibilityArgs.Pack(eligible)
}

func DecodeKernelResponses(data []byte) ([]KernelResponse, error) {
	var out []KernelResponse
	if err := strictDecode(responsesArgs, data, &out); err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrMalformedBundle, "kernel_responses: %v", err)
	}
	return out, nil
}

func DecodeKernelParams(data []byte) (*KernelParams, error) {
	var out KernelParams
	if err := strictDecode(paramsArgs, data, &out); err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrMalformedBundle, "kernel_params: %v", err)
	}
	return &out, nil
}

func DecodeEligibility(data []byte) (bool, error) {
	var out bool
	if err := strictDecode(eligibilityArgs, data, &out); err != nil {
		return false, errorsmod.Wrapf(claimerr.ErrMalformedBundle, "kernel result: %v", err)
	}
	return out, nil
}

// strictDecode unpacks data into v and accepts it only if re-encoding the
// decoded values reproduces data byte for byte.
func strictDecode(args abi.Arguments, data []byte, v interface{}) (err error) {
	defer func() {
		// input comes from a remote party
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()
	values, err := args.Unpack(data)
	if err != nil {
		return err
	}
	if len(values) != len(args) {
		return fmt.Errorf("expected %d values, decoded %d", len(args), len(values))
	}
	reencoded, err := args.Pack(values...)
	if err != nil {
		return err
	}
	if !bytes.Equal(reencoded, data) {
		return fmt.Errorf("not a canonical encoding")
	}
	return args.Copy(v, values)
}
