package attestation

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/satlayer/vesting-claim/claim-api/encoder"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
)

// Verdict is what an oracle decided for one kernel call.
type Verdict struct {
	Eligible bool
	Err      string
}

// BuildBundle assembles the bundle an oracle would return for a kernel
// request. With a nil key the auth blob is a single placeholder byte.
func BuildBundle(req kernel.Request, verdict Verdict, key *ecdsa.PrivateKey) (*kernel.Bundle, error) {
	params, err := EncodeKernelParams(KernelParams{
		Sender:               req.Sender,
		FunctionParamsDigest: encoder.Digest(req.FunctionParams),
		Kernels:              []KernelParam{{KernelID: new(big.Int).Set(req.KernelID), Params: req.KernelParams}},
	})
	if err != nil {
		return nil, err
	}
	result, err := EncodeEligibility(verdict.Eligible)
	if err != nil {
		return nil, err
	}
	responses, err := EncodeKernelResponses([]KernelResponse{{KernelID: new(big.Int).Set(req.KernelID), Result: result, Err: verdict.Err}})
	if err != nil {
		return nil, err
	}

	auth := []byte{0x01}
	if key != nil {
		auth, err = crypto.Sign(AuthDigest(params, responses), key)
		if err != nil {
			return nil, err
		}
	}
	return &kernel.Bundle{Auth: auth, KernelParams: params, KernelResponses: responses}, nil
}

// SignerAddress is a convenience for configuring a SignerSetChecker from a key.
func SignerAddress(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
