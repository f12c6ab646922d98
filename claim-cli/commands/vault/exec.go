package vault

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
	"github.com/satlayer/vesting-claim/claim-api/claimerr"
	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-api/vesting"
)

type ExecOptions struct {
	User     string
	Password string
	DryRun   bool
	// Yes skips the confirmation prompt before each broadcast.
	Yes bool
}

func Claim(opts ExecOptions, token, amount string) {
	runAmount(opts, orchestrator.KindClaim, token, amount)
}

func Deposit(opts ExecOptions, token, amount string) {
	runAmount(opts, orchestrator.KindDeposit, token, amount)
}

func Withdraw(opts ExecOptions, token, amount string) {
	runAmount(opts, orchestrator.KindWithdraw, token, amount)
}

func CreateSchedule(opts ExecOptions, token, total string, start, cliff, duration uint64, eligible []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s := mustService(ctx)
	defer s.Close()

	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	decimals, err := s.tokenDecimals(ctx, tokenAddr)
	if err != nil {
		panic(err)
	}
	totalAmount, err := vesting.ParseUnits(total, decimals)
	if err != nil {
		panic(err)
	}
	addrs := make([]common.Address, 0, len(eligible))
	for _, e := range eligible {
		addrs = append(addrs, mustAddress(e))
	}
	req := orchestrator.Request{
		Kind:   orchestrator.KindCreateSchedule,
		Wallet: wallet(opts),
		Token:  tokenAddr,
		Schedule: &types.ScheduleParams{
			Token:             tokenAddr,
			TotalAmount:       totalAmount,
			StartTime:         start,
			CliffDuration:     cliff,
			VestingDuration:   duration,
			EligibleAddresses: addrs,
		},
		DryRun: opts.DryRun,
	}
	report(s.run(ctx, opts, req, decimals), decimals)
}

func runAmount(opts ExecOptions, kind orchestrator.Kind, token, amount string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s := mustService(ctx)
	defer s.Close()

	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	decimals, err := s.tokenDecimals(ctx, tokenAddr)
	if err != nil {
		panic(err)
	}
	value, err := vesting.ParseUnits(amount, decimals)
	if err != nil {
		panic(err)
	}
	req := orchestrator.Request{
		Kind:   kind,
		Wallet: wallet(opts),
		Token:  tokenAddr,
		Amount: value,
		DryRun: opts.DryRun,
	}
	report(s.run(ctx, opts, req, decimals), decimals)
}

func (s *Service) run(ctx context.Context, opts ExecOptions, req orchestrator.Request, decimals uint8) *orchestrator.Outcome {
	if !opts.Yes {
		s.Orchestrator.Confirm = PromptConfirm(os.Stdin, os.Stdout, decimals)
	}
	s.Orchestrator.Observer = func(_ string, _, to orchestrator.State) {
		fmt.Printf("  -> %s\n", to)
	}
	return s.Orchestrator.Run(ctx, req)
}

func wallet(opts ExecOptions) types.ETHWallet {
	return types.ETHWallet{FromAddr: mustAddress(opts.User), PWD: opts.Password}
}

// report prints the outcome and panics with its error so the process exits non-zero.
func report(outcome *orchestrator.Outcome, decimals uint8) {
	fmt.Print(formatOutcome(outcome, decimals))
	if !outcome.Succeeded() {
		panic(outcome.Err())
	}
}

func formatOutcome(o *orchestrator.Outcome, decimals uint8) string {
	amount := ""
	if o.Amount != nil {
		amount = " " + vesting.FormatUnits(o.Amount, decimals)
	}
	switch {
	case o.State.Stage == orchestrator.StageReady:
		return fmt.Sprintf("Dry run of %s%s would succeed.\n", o.Kind, amount)
	case o.Succeeded():
		return fmt.Sprintf("%s%s confirmed. txn: %s\n", o.Kind, amount, o.TxHash.Hex())
	}
	err := o.Err()
	msg := fmt.Sprintf("%s failed: %s\n", o.Kind, claimerr.Reason(err))
	if claimerr.IsRetryable(err) {
		msg += "This looks transient; retrying the command starts a fresh attempt.\n"
	}
	if o.TxHash != (common.Hash{}) {
		msg += fmt.Sprintf("txn: %s\n", o.TxHash.Hex())
	}
	return msg
}
