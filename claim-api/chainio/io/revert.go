package io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// RevertReason extracts a human readable reason from an execution error. It
// understands Error(string), Panic(uint256) and custom errors declared in
// contractABI.
func RevertReason(err error, contractABI *abi.ABI) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	var data []byte
	switch d := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(d)
		if decodeErr != nil {
			return d, d != ""
		}
		data = decoded
	case []byte:
		data = d
	default:
		return "", false
	}
	if len(data) < 4 {
		return "execution reverted", true
	}
	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		return reason, true
	}
	if contractABI != nil {
		for name, custom := range contractABI.Errors {
			if !bytes.Equal(custom.ID[:4], data[:4]) {
				continue
			}
			args, unpackErr := custom.Unpack(data)
			if unpackErr != nil {
				return name, true
			}
			return fmt.Sprintf("%s%v", name, args), true
		}
	}
	return hexutil.Encode(data), true
}

// classify maps a node error into the claim taxonomy. Execution failures are
// wrapped in revertKind; everything else is a transport problem.
func classify(err error, contractABI *abi.ABI, revertKind *errorsmod.Error) error {
	if claimerr.Reason(err) != "unknown" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errorsmod.Wrap(claimerr.ErrTimeout, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if revertKind != nil {
		if reason, ok := RevertReason(err, contractABI); ok {
			return errorsmod.Wrap(revertKind, reason)
		}
		if strings.Contains(err.Error(), "execution reverted") {
			return errorsmod.Wrap(revertKind, err.Error())
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errorsmod.Wrap(claimerr.ErrTimeout, err.Error())
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && revertKind != nil {
		return errorsmod.Wrapf(revertKind, "%s (code %d)", rpcErr.Error(), rpcErr.ErrorCode())
	}
	return errorsmod.Wrap(claimerr.ErrNetwork, err.Error())
}
