package attestation

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
	"github.com/satlayer/vesting-claim/claim-api/signer"
)

// AuthChecker validates the oracle's opaque authorization blob. The vault
// re-validates it on chain; a local check only saves gas on bundles that
// would be rejected anyway.
type AuthChecker interface {
	CheckAuth(bundle *kernel.Bundle) error
}

// NonEmptyAuth accepts any non-empty auth and leaves cryptographic checks to the vault.
type NonEmptyAuth struct{}

func (NonEmptyAuth) CheckAuth(bundle *kernel.Bundle) error {
	if len(bundle.Auth) == 0 {
		return errorsmod.Wrap(claimerr.ErrMalformedBundle, "auth is empty")
	}
	return nil
}

// SignerSetChecker requires auth to hold Threshold distinct 65-byte ECDSA
// signatures from the configured oracle signers over
// keccak256(kernel_params || kernel_responses).
type SignerSetChecker struct {
	Signers   []common.Address
	Threshold int
}

func NewSignerSetChecker(signers []common.Address, threshold int) *SignerSetChecker {
	if threshold <= 0 {
		threshold = 1
	}
	return &SignerSetChecker{Signers: signers, Threshold: threshold}
}

// AuthDigest is the hash oracle signers sign.
func AuthDigest(kernelParams, kernelResponses []byte) []byte {
	return crypto.Keccak256(kernelParams, kernelResponses)
}

func (c *SignerSetChecker) CheckAuth(bundle *kernel.Bundle) error {
	auth := bundle.Auth
	if len(auth) == 0 || len(auth)%crypto.SignatureLength != 0 {
		return errorsmod.Wrapf(claimerr.ErrMalformedBundle, "auth length %d is not a multiple of %d", len(auth), crypto.SignatureLength)
	}
	allowed := make(map[common.Address]bool, len(c.Signers))
	for _, s := range c.Signers {
		allowed[s] = true
	}
	digest := AuthDigest(bundle.KernelParams, bundle.KernelResponses)
	seen := make(map[common.Address]bool)
	for i := 0; i < len(auth); i += crypto.SignatureLength {
		addr, err := signer.RecoverSigner(digest, auth[i:i+crypto.SignatureLength])
		if err != nil {
			return errorsmod.Wrapf(claimerr.ErrMalformedBundle, "signature %d: %v", i/crypto.SignatureLength, err)
		}
		if !allowed[addr] {
			return errorsmod.Wrapf(claimerr.ErrMalformedBundle, "signature %d from unknown signer %s", i/crypto.SignatureLength, addr.Hex())
		}
		if seen[addr] {
			return errorsmod.Wrapf(claimerr.ErrMalformedBundle, "duplicate signature from %s", addr.Hex())
		}
		seen[addr] = true
	}
	if len(seen) < c.Threshold {
		return errorsmod.Wrap(claimerr.ErrMalformedBundle, fmt.Sprintf("%d of %d required signatures", len(seen), c.Threshold))
	}
	return nil
}
