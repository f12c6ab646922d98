package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/vesting"
	"github.com/satlayer/vesting-claim/claim-cli/conf"
)

func mustService(ctx context.Context) *Service {
	cfg, err := conf.Load()
	if err != nil {
		panic(err)
	}
	s, err := NewService(ctx, cfg, "vestclaim-cli")
	if err != nil {
		panic(err)
	}
	return s
}

func mustAddress(value string) common.Address {
	if !common.IsHexAddress(value) {
		panic(fmt.Sprintf("%q is not an address", value))
	}
	return common.HexToAddress(value)
}

func Schedule(token string) {
	ctx := context.Background()
	s := mustService(ctx)
	defer s.Close()
	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	sched, err := s.View.Schedule(ctx, tokenAddr)
	if err != nil {
		panic(err)
	}
	decimals, symbol := s.tokenMeta(ctx, tokenAddr)
	fmt.Print(formatSchedule(sched, decimals, symbol))
}

func Vested(token string) {
	ctx := context.Background()
	s := mustService(ctx)
	defer s.Close()
	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	vested, now, err := s.View.Vested(ctx, tokenAddr)
	if err != nil {
		panic(err)
	}
	decimals, symbol := s.tokenMeta(ctx, tokenAddr)
	fmt.Printf("Vested at %s: %s %s\n", unix(now), vesting.FormatUnits(vested, decimals), symbol)
}

func Claimable(token, user string) {
	ctx := context.Background()
	s := mustService(ctx)
	defer s.Close()
	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	claimable, err := s.View.Claimable(ctx, mustAddress(user), tokenAddr)
	if err != nil {
		panic(err)
	}
	decimals, symbol := s.tokenMeta(ctx, tokenAddr)
	fmt.Printf("Claimable: %s %s\n", vesting.FormatUnits(claimable, decimals), symbol)
}

func Eligible(token, user string) {
	ctx := context.Background()
	s := mustService(ctx)
	defer s.Close()
	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	ok, err := s.View.IsEligible(ctx, tokenAddr, mustAddress(user))
	if err != nil {
		panic(err)
	}
	fmt.Printf("Eligible: %t\n", ok)
}

func Ledger(token, user string) {
	ctx := context.Background()
	s := mustService(ctx)
	defer s.Close()
	tokenAddr, err := s.Token(token)
	if err != nil {
		panic(err)
	}
	entry, err := s.View.Ledger(ctx, mustAddress(user), tokenAddr)
	if err != nil {
		panic(err)
	}
	decimals, symbol := s.tokenMeta(ctx, tokenAddr)
	fmt.Printf("Deposited: %s %s\nClaimed: %s %s\n",
		vesting.FormatUnits(entry.Deposited, decimals), symbol,
		vesting.FormatUnits(entry.Claimed, decimals), symbol)
}

// tokenDecimals scales amounts typed by the user. Unlike tokenMeta it never
// falls back to base units.
func (s *Service) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	decimals, err := s.ERC20.Decimals(ctx, token)
	if err != nil {
		return 0, errorsmod.Wrapf(err, "reading decimals of token %s", token.Hex())
	}
	return decimals, nil
}

// tokenMeta falls back to raw base units when the token does not expose metadata.
func (s *Service) tokenMeta(ctx context.Context, token common.Address) (uint8, string) {
	decimals, err := s.ERC20.Decimals(ctx, token)
	if err != nil {
		s.Logger.Debug("token has no decimals, printing base units")
		return 0, ""
	}
	symbol, err := s.ERC20.Symbol(ctx, token)
	if err != nil {
		return decimals, ""
	}
	return decimals, symbol
}

func formatSchedule(s vesting.Schedule, decimals uint8, symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s\n", s.Token.Hex())
	fmt.Fprintf(&b, "Total: %s %s\n", vesting.FormatUnits(s.TotalAmount, decimals), symbol)
	fmt.Fprintf(&b, "Start: %s\n", unix(s.StartTime))
	fmt.Fprintf(&b, "Cliff ends: %s\n", unix(s.CliffEnd()))
	fmt.Fprintf(&b, "Fully vested: %s\n", unix(s.UnlockTime()))
	fmt.Fprintf(&b, "Creator: %s\n", s.Creator.Hex())
	fmt.Fprintf(&b, "Active: %t\n", s.Active)
	return b.String()
}

func unix(sec uint64) string {
	return time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
}
