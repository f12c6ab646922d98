// Package attestation checks an oracle bundle locally before any gas is
// spent. It decodes the echoed kernel params and responses strictly and makes
// sure they attest to exactly the call about to be submitted.
package attestation

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/encoder"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
)

// Attestation is a verified bundle, ready to be passed to the vault's claim.
type Attestation struct {
	Payload  types.KernelPayload
	KernelID *big.Int
}

type Verifier struct {
	kernelID *big.Int
	auth     AuthChecker
}

func NewVerifier(kernelID *big.Int, auth AuthChecker) *Verifier {
	if auth == nil {
		auth = NonEmptyAuth{}
	}
	return &Verifier{kernelID: kernelID, auth: auth}
}

// Verify accepts bundle only if it is well formed, authorized, bound to
// claimant and expectedFunctionParams, and affirms eligibility.
func (v *Verifier) Verify(bundle *kernel.Bundle, expectedFunctionParams []byte, claimant common.Address) (*Attestation, error) {
	if bundle == nil || len(bundle.Auth) == 0 || len(bundle.KernelParams) == 0 || len(bundle.KernelResponses) == 0 {
		return nil, errorsmod.Wrap(claimerr.ErrMalformedBundle, "bundle has empty fields")
	}

	responses, err := DecodeKernelResponses(bundle.KernelResponses)
	if err != nil {
		return nil, err
	}
	params, err := DecodeKernelParams(bundle.KernelParams)
	if err != nil {
		return nil, err
	}
	if err = v.auth.CheckAuth(bundle); err != nil {
		return nil, err
	}

	if err = v.checkCorrespondence(params, expectedFunctionParams, claimant); err != nil {
		return nil, err
	}

	response, ok := v.findResponse(responses)
	if !ok {
		return nil, errorsmod.Wrapf(claimerr.ErrMalformedBundle, "no response for kernel %s", v.kernelID)
	}
	if response.Err != "" {
		return nil, errorsmod.Wrap(claimerr.ErrIneligible, response.Err)
	}
	eligible, err := DecodeEligibility(response.Result)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, errorsmod.Wrapf(claimerr.ErrIneligible, "kernel %s denied %s", v.kernelID, claimant.Hex())
	}

	return &Attestation{
		Payload: types.KernelPayload{
			Auth:            bundle.Auth,
			KernelResponses: bundle.KernelResponses,
			KernelParams:    bundle.KernelParams,
		},
		KernelID: new(big.Int).Set(v.kernelID),
	}, nil
}

func (v *Verifier) checkCorrespondence(params *KernelParams, expectedFunctionParams []byte, claimant common.Address) error {
	token, _, err := encoder.DecodeFunctionParams(expectedFunctionParams)
	if err != nil {
		return err
	}
	if params.Sender != claimant {
		return errorsmod.Wrapf(claimerr.ErrParameterMismatch, "attested sender %s, claimant %s", params.Sender.Hex(), claimant.Hex())
	}
	if common.Hash(params.FunctionParamsDigest) != encoder.Digest(expectedFunctionParams) {
		return errorsmod.Wrap(claimerr.ErrParameterMismatch, "function params digest differs from the call being submitted")
	}

	var kernelInput []byte
	found := false
	for _, k := range params.Kernels {
		if k.KernelID != nil && k.KernelID.Cmp(v.kernelID) == 0 {
			kernelInput, found = k.Params, true
			break
		}
	}
	if !found {
		return errorsmod.Wrapf(claimerr.ErrParameterMismatch, "kernel %s not attested", v.kernelID)
	}
	attestedToken, attestedUser, err := encoder.DecodeKernelParams(kernelInput)
	if err != nil {
		return errorsmod.Wrapf(claimerr.ErrMalformedBundle, "kernel %s params: %v", v.kernelID, err)
	}
	if attestedToken != token {
		return errorsmod.Wrapf(claimerr.ErrParameterMismatch, "attested token %s, claim token %s", attestedToken.Hex(), token.Hex())
	}
	if attestedUser != claimant {
		return errorsmod.Wrapf(claimerr.ErrParameterMismatch, "attested user %s, claimant %s", attestedUser.Hex(), claimant.Hex())
	}
	return nil
}

func (v *Verifier) findResponse(responses []KernelResponse) (KernelResponse, bool) {
	for _, r := range responses {
		if r.KernelID != nil && r.KernelID.Cmp(v.kernelID) == 0 {
			return r, true
		}
	}
	return KernelResponse{}, false
}
