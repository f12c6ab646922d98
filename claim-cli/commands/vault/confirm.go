package vault

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

// PromptConfirm asks on out and reads y/N from in before every broadcast.
func PromptConfirm(in io.Reader, out io.Writer, decimals uint8) orchestrator.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, state orchestrator.State, req orchestrator.Request) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s? [y/N] ", describe(state, req, decimals))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

func describe(state orchestrator.State, req orchestrator.Request, decimals uint8) string {
	if state.Stage == orchestrator.StageApproving {
		return fmt.Sprintf("Approve the vault to spend %s of token %s", vesting.FormatUnits(req.ApprovalAmount(), decimals), approvedToken(req).Hex())
	}
	switch req.Kind {
	case orchestrator.KindCreateSchedule:
		return fmt.Sprintf("Create a vesting schedule for token %s", req.Schedule.Token.Hex())
	default:
		return fmt.Sprintf("Submit %s of %s token %s", req.Kind, vesting.FormatUnits(req.Amount, decimals), req.Token.Hex())
	}
}

func approvedToken(req orchestrator.Request) common.Address {
	if req.Kind == orchestrator.KindCreateSchedule && req.Schedule != nil {
		return req.Schedule.Token
	}
	return req.Token
}
