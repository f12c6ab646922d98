// Package encoder produces the canonical byte representation shared by the
// client, the kernel oracle and the vesting vault. Encoding is Solidity ABI
// encoding of a flat argument tuple, so every party recomputes identical bytes.
package encoder

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// TypeTag names a supported Solidity type.
type TypeTag string

const (
	Address      TypeTag = "address"
	Uint256      TypeTag = "uint256"
	Uint64       TypeTag = "uint64"
	Bool         TypeTag = "bool"
	Bytes        TypeTag = "bytes"
	Bytes32      TypeTag = "bytes32"
	String       TypeTag = "string"
	AddressArray TypeTag = "address[]"
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// FunctionParamsTypes is the layout of the on-chain call payload.
	FunctionParamsTypes = []TypeTag{Address, Uint256}
	// KernelParamsTypes is the layout the eligibility kernel consumes.
	KernelParamsTypes = []TypeTag{Address, Address}
)

// ParseTypes parses a tuple signature such as "(address,uint256)".
func ParseTypes(sig string) ([]TypeTag, error) {
	sig = strings.TrimSpace(sig)
	if !strings.HasPrefix(sig, "(") || !strings.HasSuffix(sig, ")") {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "tuple signature must be parenthesised: %q", sig)
	}
	inner := strings.TrimSpace(sig[1 : len(sig)-1])
	if inner == "" {
		return []TypeTag{}, nil
	}
	parts := strings.Split(inner, ",")
	tags := make([]TypeTag, 0, len(parts))
	for _, p := range parts {
		tag := TypeTag(strings.TrimSpace(p))
		if _, err := abiType(tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Encode packs values according to types. Values must already be in their
// canonical Go form; see normalize for what is accepted.
func Encode(types []TypeTag, values []interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "expected %d values, got %d", len(types), len(values))
	}
	args, err := arguments(types)
	if err != nil {
		return nil, err
	}
	normalized := make([]interface{}, len(values))
	for i, v := range values {
		n, err := normalize(types[i], v)
		if err != nil {
			return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "value %d: %v", i, err)
		}
		normalized[i] = n
	}
	out, err := args.Pack(normalized...)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "pack: %v", err)
	}
	return out, nil
}

// Decode is the inverse of Encode. It rejects any input that is not the exact
// canonical encoding of the decoded values.
func Decode(types []TypeTag, data []byte) ([]interface{}, error) {
	args, err := arguments(types)
	if err != nil {
		return nil, err
	}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "unpack: %v", err)
	}
	if len(values) != len(types) {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "expected %d values, decoded %d", len(types), len(values))
	}
	reencoded, err := args.Pack(values...)
	if err != nil || !bytes.Equal(reencoded, data) {
		return nil, errorsmod.Wrap(claimerr.ErrEncoding, "input is not a canonical encoding")
	}
	return values, nil
}

// Digest is the keccak256 digest the oracle and the vault compute over encoded params.
func Digest(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}

// FunctionParams encodes the on-chain payload (address token, uint256 amount).
func FunctionParams(token common.Address, amount *big.Int) ([]byte, error) {
	return Encode(FunctionParamsTypes, []interface{}{token, amount})
}

// DecodeFunctionParams is the inverse of FunctionParams.
func DecodeFunctionParams(data []byte) (common.Address, *big.Int, error) {
	values, err := Decode(FunctionParamsTypes, data)
	if err != nil {
		return common.Address{}, nil, err
	}
	return values[0].(common.Address), values[1].(*big.Int), nil
}

// KernelParams encodes the kernel input (address token, address claimant).
func KernelParams(token, claimant common.Address) ([]byte, error) {
	return Encode(KernelParamsTypes, []interface{}{token, claimant})
}

// DecodeKernelParams is the inverse of KernelParams.
func DecodeKernelParams(data []byte) (common.Address, common.Address, error) {
	values, err := Decode(KernelParamsTypes, data)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return values[0].(common.Address), values[1].(common.Address), nil
}

func arguments(types []TypeTag) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, tag := range types {
		t, err := abiType(tag)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Type: t})
	}
	return args, nil
}

func abiType(tag TypeTag) (abi.Type, error) {
	switch tag {
	case Address, Uint256, Uint64, Bool, Bytes, Bytes32, String, AddressArray:
	default:
		return abi.Type{}, errorsmod.Wrapf(claimerr.ErrEncoding, "unsupported type %q", tag)
	}
	t, err := abi.NewType(string(tag), "", nil)
	if err != nil {
		return abi.Type{}, errorsmod.Wrapf(claimerr.ErrEncoding, "type %q: %v", tag, err)
	}
	return t, nil
}

func normalize(tag TypeTag, v interface{}) (interface{}, error) {
	switch tag {
	case Address:
		return toAddress(v)
	case AddressArray:
		switch t := v.(type) {
		case []common.Address:
			return t, nil
		case []string:
			out := make([]common.Address, len(t))
			for i, s := range t {
				a, err := toAddress(s)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = a
			}
			return out, nil
		}
	case Uint256:
		switch t := v.(type) {
		case *big.Int:
			if t == nil || t.Sign() < 0 || t.Cmp(maxUint256) > 0 {
				return nil, fmt.Errorf("uint256 out of range: %v", t)
			}
			return t, nil
		case uint64:
			return new(big.Int).SetUint64(t), nil
		}
	case Uint64:
		if t, ok := v.(uint64); ok {
			return t, nil
		}
	case Bool:
		if t, ok := v.(bool); ok {
			return t, nil
		}
	case Bytes:
		if t, ok := v.([]byte); ok {
			return t, nil
		}
	case Bytes32:
		switch t := v.(type) {
		case [32]byte:
			return t, nil
		case common.Hash:
			return [32]byte(t), nil
		}
	case String:
		if t, ok := v.(string); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%T is not a valid %s", v, tag)
}

func toAddress(v interface{}) (common.Address, error) {
	switch t := v.(type) {
	case common.Address:
		return t, nil
	case string:
		if !common.IsHexAddress(t) {
			return common.Address{}, fmt.Errorf("%q is not a hex address", t)
		}
		return common.HexToAddress(t), nil
	}
	return common.Address{}, fmt.Errorf("%T is not a valid address", v)
}
