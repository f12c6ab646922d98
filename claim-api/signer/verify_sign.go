package signer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverSigner returns the address that produced an [R || S || V] signature
// over hash. V may be 0/1 or 27/28.
func RecoverSigner(hash []byte, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifySignature reports whether signature over hash was produced by expected.
func VerifySignature(expected common.Address, hash []byte, signature []byte) (bool, error) {
	addr, err := RecoverSigner(hash, signature)
	if err != nil {
		return false, err
	}
	return addr == expected, nil
}
