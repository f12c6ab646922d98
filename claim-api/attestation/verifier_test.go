package attestation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/encoder"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
)

var (
	kernelID = big.NewInt(1557)
	token    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	alice    = common.HexToAddress("0xaA0851f2939EF2D8B51971B510383Fcb5c246a17")
	bob      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func claimRequest(t *testing.T, user common.Address, amount int64) kernel.Request {
	t.Helper()
	kp, err := encoder.KernelParams(token, user)
	require.NoError(t, err)
	fp, err := encoder.FunctionParams(token, big.NewInt(amount))
	require.NoError(t, err)
	return kernel.Request{
		EntryID:        "entry",
		AccessToken:    "token",
		KernelID:       kernelID,
		Sender:         user,
		KernelParams:   kp,
		FunctionParams: fp,
	}
}

func TestVerifyAcceptsMatchingBundle(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	att, err := NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, alice)
	require.NoError(t, err)
	assert.Equal(t, bundle.Auth, att.Payload.Auth)
	assert.Equal(t, bundle.KernelParams, att.Payload.KernelParams)
	assert.Equal(t, bundle.KernelResponses, att.Payload.KernelResponses)
	assert.Equal(t, 0, att.KernelID.Cmp(kernelID))
}

func TestVerifyRejectsOtherAmount(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	tampered, err := encoder.FunctionParams(token, big.NewInt(600))
	require.NoError(t, err)
	_, err = NewVerifier(kernelID, nil).Verify(bundle, tampered, alice)
	assert.ErrorIs(t, err, claimerr.ErrParameterMismatch)
}

func TestVerifyRejectsOtherClaimant(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	_, err = NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, bob)
	assert.ErrorIs(t, err, claimerr.ErrParameterMismatch)
}

func TestVerifyRejectsKernelInputForOtherUser(t *testing.T) {
	req := claimRequest(t, alice, 500)
	other, err := encoder.KernelParams(token, bob)
	require.NoError(t, err)
	req.KernelParams = other
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	_, err = NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrParameterMismatch)
}

func TestVerifyRejectsUnknownKernel(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	_, err = NewVerifier(big.NewInt(7), nil).Verify(bundle, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrParameterMismatch)
}

func TestVerifyIneligible(t *testing.T) {
	testCases := []struct {
		name    string
		verdict Verdict
	}{
		{"negative result", Verdict{Eligible: false}},
		{"error note", Verdict{Eligible: true, Err: "not in eligible set"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := claimRequest(t, alice, 500)
			bundle, err := BuildBundle(req, tc.verdict, nil)
			require.NoError(t, err)
			_, err = NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, alice)
			assert.ErrorIs(t, err, claimerr.ErrIneligible)
		})
	}
}

func TestVerifyMalformedResponsesStopsBeforeParams(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	// (kernelId, result) pairs: one field short of the contracted tuple
	pairTy, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "kernelId", Type: "uint256"},
		{Name: "result", Type: "bytes"},
	})
	require.NoError(t, err)
	type pair struct {
		KernelId *big.Int
		Result   []byte
	}
	bundle.KernelResponses, err = abi.Arguments{{Type: pairTy}}.Pack([]pair{{KernelId: kernelID, Result: []byte{1}}})
	require.NoError(t, err)
	bundle.KernelParams = []byte{0xde, 0xad}

	_, err = NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, alice)
	require.ErrorIs(t, err, claimerr.ErrMalformedBundle)
	assert.Contains(t, err.Error(), "kernel_responses")
}

func TestVerifyMalformedBundles(t *testing.T) {
	req := claimRequest(t, alice, 500)
	good, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(b *kernel.Bundle)
	}{
		{"empty auth", func(b *kernel.Bundle) { b.Auth = nil }},
		{"empty params", func(b *kernel.Bundle) { b.KernelParams = nil }},
		{"truncated responses", func(b *kernel.Bundle) { b.KernelResponses = b.KernelResponses[:len(b.KernelResponses)-1] }},
		{"trailing params", func(b *kernel.Bundle) { b.KernelParams = append(b.KernelParams, 0) }},
		{"garbage responses", func(b *kernel.Bundle) { b.KernelResponses = []byte{1, 2, 3} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &kernel.Bundle{
				Auth:            append([]byte{}, good.Auth...),
				KernelParams:    append([]byte{}, good.KernelParams...),
				KernelResponses: append([]byte{}, good.KernelResponses...),
			}
			tc.mutate(b)
			_, err := NewVerifier(kernelID, nil).Verify(b, req.FunctionParams, alice)
			assert.ErrorIs(t, err, claimerr.ErrMalformedBundle)
		})
	}

	_, err = NewVerifier(kernelID, nil).Verify(nil, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrMalformedBundle)
}

func TestVerifyMissingResponse(t *testing.T) {
	req := claimRequest(t, alice, 500)
	bundle, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)
	result, err := EncodeEligibility(true)
	require.NoError(t, err)
	bundle.KernelResponses, err = EncodeKernelResponses([]KernelResponse{{KernelID: big.NewInt(9), Result: result}})
	require.NoError(t, err)

	_, err = NewVerifier(kernelID, nil).Verify(bundle, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrMalformedBundle)
}

func TestSignerSetChecker(t *testing.T) {
	oracleKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	rogueKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	checker := NewSignerSetChecker([]common.Address{SignerAddress(oracleKey)}, 1)
	req := claimRequest(t, alice, 500)

	signed, err := BuildBundle(req, Verdict{Eligible: true}, oracleKey)
	require.NoError(t, err)
	_, err = NewVerifier(kernelID, checker).Verify(signed, req.FunctionParams, alice)
	require.NoError(t, err)

	rogue, err := BuildBundle(req, Verdict{Eligible: true}, rogueKey)
	require.NoError(t, err)
	_, err = NewVerifier(kernelID, checker).Verify(rogue, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrMalformedBundle)

	unsigned, err := BuildBundle(req, Verdict{Eligible: true}, nil)
	require.NoError(t, err)
	_, err = NewVerifier(kernelID, checker).Verify(unsigned, req.FunctionParams, alice)
	assert.ErrorIs(t, err, claimerr.ErrMalformedBundle)

	doubled := &kernel.Bundle{Auth: append(append([]byte{}, signed.Auth...), signed.Auth...), KernelParams: signed.KernelParams, KernelResponses: signed.KernelResponses}
	assert.ErrorIs(t, checker.CheckAuth(doubled), claimerr.ErrMalformedBundle)
}

func TestSchemaRoundTrip(t *testing.T) {
	responses := []KernelResponse{
		{KernelID: big.NewInt(1), Result: []byte{1, 2}, Err: ""},
		{KernelID: big.NewInt(2), Result: nil, Err: "boom"},
	}
	data, err := EncodeKernelResponses(responses)
	require.NoError(t, err)
	decoded, err := DecodeKernelResponses(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "2", decoded[1].KernelID.String())
	assert.Equal(t, "boom", decoded[1].Err)
	assert.Equal(t, []byte{1, 2}, decoded[0].Result)
}
