package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/satlayer/vesting-claim/claim-cli/conf"
	"github.com/satlayer/vesting-claim/claim-gateway/core"
)

func main() {
	cfg, err := conf.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = core.Run(ctx, cfg); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
