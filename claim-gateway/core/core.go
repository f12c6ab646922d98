// Package core runs the gateway: HTTP routes, metrics, and the background
// loops that keep the read cache honest.
package core

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satlayer/vesting-claim/claim-api/chainio/indexer"
	"github.com/satlayer/vesting-claim/claim-api/iac"
	"github.com/satlayer/vesting-claim/claim-api/logger"
	"github.com/satlayer/vesting-claim/claim-api/metrics"
	"github.com/satlayer/vesting-claim/claim-cli/commands/vault"
	"github.com/satlayer/vesting-claim/claim-cli/conf"
	"github.com/satlayer/vesting-claim/claim-gateway/api"
)

const (
	appName         = "vestclaim-gateway"
	indexerRate     = rate.Limit(5)
	indexerRetries  = 3
	shutdownTimeout = 5 * time.Second
)

func Run(ctx context.Context, cfg conf.Config) error {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zap.ReplaceGlobals(zapLogger)()
	defer func() { _ = zapLogger.Sync() }()

	svc, err := vault.NewService(ctx, cfg, appName)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := func(ctx context.Context) error {
		_, err := svc.ChainIO.GetLatestBlockNumber(ctx)
		return err
	}
	metricsErr := metrics.NewServer(cfg.Gateway.Metrics, svc.Metrics.Registry, ready, svc.Logger).Start(ctx)

	if err = startIndexer(ctx, svc); err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sub := iac.NewSubscriber(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		iac.Go(func() {
			sub.Subscribe(ctx, iac.InvalidateOnConfirmed(ctx, svc.View))
		})
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(svc.Logger))
	api.SetupRoutes(router, api.NewHandler(svc.View, svc.Orchestrator, svc.Tracker, ready))

	server := &http.Server{Addr: cfg.Gateway.Listen, Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		svc.Logger.Info("Gateway listening", logger.WithField("addr", cfg.Gateway.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	case err = <-metricsErr:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		svc.Logger.Warn("Gateway shutdown failed", logger.WithError(shutdownErr))
	}
	return err
}

// startIndexer follows vault events from the current head and drops cached
// state for every (user, token) they touch.
func startIndexer(ctx context.Context, svc *vault.Service) error {
	head, err := svc.ChainIO.GetLatestBlockNumber(ctx)
	if err != nil {
		return err
	}
	idx := svc.Vault.Indexer(svc.ChainIO.GetETHClient(), head, indexerRate, indexerRetries)
	events, err := idx.Run(ctx)
	if err != nil {
		return err
	}
	iac.Go(func() {
		svc.Vault.EventHandler(events, func(user, token common.Address, event *indexer.Event) {
			if err := svc.View.Invalidate(ctx, user, token); err != nil {
				svc.Logger.Warn("Failed to invalidate after vault event",
					logger.WithField("event", event.EventType), logger.WithField("tx", event.TxHash), logger.WithError(err))
			}
		})
	})
	return nil
}

func requestLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("request",
			logger.WithField("method", c.Request.Method),
			logger.WithField("path", c.FullPath()),
			logger.WithField("status", c.Writer.Status()),
			logger.WithField("latency", time.Since(start).String()))
	}
}
