package encoder

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

var (
	tokenAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	userAddr  = common.HexToAddress("0xaA0851f2939EF2D8B51971B510383Fcb5c246a17")
)

func TestParseTypes(t *testing.T) {
	testCases := []struct {
		name    string
		sig     string
		want    []TypeTag
		wantErr bool
	}{
		{"address pair", "(address,address)", []TypeTag{Address, Address}, false},
		{"address amount", "( address , uint256 )", []TypeTag{Address, Uint256}, false},
		{"empty", "()", []TypeTag{}, false},
		{"no parens", "address,uint256", nil, true},
		{"unsupported", "(int8)", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTypes(tc.sig)
			if tc.wantErr {
				assert.ErrorIs(t, err, claimerr.ErrEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := FunctionParams(tokenAddr, big.NewInt(500))
	require.NoError(t, err)
	b, err := Encode([]TypeTag{Address, Uint256}, []interface{}{tokenAddr.Hex(), uint64(500)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Equal(t, Digest(a), Digest(b))
}

func TestEncodeRejectsMistypedValues(t *testing.T) {
	testCases := []struct {
		name   string
		types  []TypeTag
		values []interface{}
	}{
		{"non address string", []TypeTag{Address}, []interface{}{"alice"}},
		{"int for address", []TypeTag{Address}, []interface{}{42}},
		{"negative amount", []TypeTag{Uint256}, []interface{}{big.NewInt(-1)}},
		{"oversized amount", []TypeTag{Uint256}, []interface{}{new(big.Int).Lsh(big.NewInt(1), 256)}},
		{"nil amount", []TypeTag{Uint256}, []interface{}{(*big.Int)(nil)}},
		{"string for bool", []TypeTag{Bool}, []interface{}{"true"}},
		{"arity", []TypeTag{Address, Uint256}, []interface{}{tokenAddr}},
		{"bad array element", []TypeTag{AddressArray}, []interface{}{[]string{userAddr.Hex(), "0x12"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.types, tc.values)
			assert.ErrorIs(t, err, claimerr.ErrEncoding)
		})
	}
}

func TestDecodeRejectsNonCanonicalInput(t *testing.T) {
	data, err := FunctionParams(tokenAddr, big.NewInt(1))
	require.NoError(t, err)

	_, err = Decode(FunctionParamsTypes, data[:40])
	assert.ErrorIs(t, err, claimerr.ErrEncoding)

	// dirty high bytes in the address word
	dirty := append([]byte{}, data...)
	dirty[0] = 0xff
	_, err = Decode(FunctionParamsTypes, dirty)
	assert.ErrorIs(t, err, claimerr.ErrEncoding)

	// trailing garbage
	_, err = Decode(FunctionParamsTypes, append(append([]byte{}, data...), 0x01))
	assert.ErrorIs(t, err, claimerr.ErrEncoding)
}

func TestKernelAndFunctionParamsRoundTrip(t *testing.T) {
	kp, err := KernelParams(tokenAddr, userAddr)
	require.NoError(t, err)
	token, user, err := DecodeKernelParams(kp)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, token)
	assert.Equal(t, userAddr, user)

	fp, err := FunctionParams(tokenAddr, big.NewInt(1000))
	require.NoError(t, err)
	token, amount, err := DecodeFunctionParams(fp)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, token)
	assert.Equal(t, 0, amount.Cmp(big.NewInt(1000)))
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	types := []TypeTag{Address, Uint256, Uint64, Bool, Bytes, Bytes32, String, AddressArray}

	properties.Property("decode(encode(types, values)) == values", prop.ForAll(
		func(addr []byte, amount uint64, shift uint, n uint64, flag bool, blob []byte, word []byte, text string, count int) bool {
			var b32 [32]byte
			copy(b32[:], word)
			amt := new(big.Int).Lsh(new(big.Int).SetUint64(amount), shift)
			addrs := make([]common.Address, count)
			for i := range addrs {
				addrs[i] = common.BytesToAddress(append(addr, byte(i)))
			}
			values := []interface{}{common.BytesToAddress(addr), amt, n, flag, blob, b32, text, addrs}

			data, err := Encode(types, values)
			if err != nil {
				return false
			}
			decoded, err := Decode(types, data)
			if err != nil {
				return false
			}
			return decoded[0] == values[0] &&
				decoded[1].(*big.Int).Cmp(amt) == 0 &&
				decoded[2] == n &&
				decoded[3] == flag &&
				string(decoded[4].([]byte)) == string(blob) &&
				decoded[5] == b32 &&
				decoded[6] == text &&
				len(decoded[7].([]common.Address)) == count &&
				(count == 0 || decoded[7].([]common.Address)[count-1] == addrs[count-1])
		},
		gen.SliceOfN(20, gen.UInt8()),
		gen.UInt64(),
		gen.UIntRange(0, 190),
		gen.UInt64(),
		gen.Bool(),
		gen.SliceOf(gen.UInt8()),
		gen.SliceOfN(32, gen.UInt8()),
		gen.AnyString(),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
