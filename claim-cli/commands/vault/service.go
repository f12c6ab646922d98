package vault

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/satlayer/vesting-claim/claim-api/attestation"
	"github.com/satlayer/vesting-claim/claim-api/cache"
	abis "github.com/satlayer/vesting-claim/claim-api/chainio/abi"
	"github.com/satlayer/vesting-claim/claim-api/chainio/api"
	"github.com/satlayer/vesting-claim/claim-api/chainio/io"
	"github.com/satlayer/vesting-claim/claim-api/iac"
	"github.com/satlayer/vesting-claim/claim-api/kernel"
	logger2 "github.com/satlayer/vesting-claim/claim-api/logger"
	"github.com/satlayer/vesting-claim/claim-api/metrics"
	"github.com/satlayer/vesting-claim/claim-api/orchestrator"
	"github.com/satlayer/vesting-claim/claim-cli/conf"
)

type Service struct {
	Config       conf.Config
	Logger       logger2.Logger
	Metrics      *metrics.Indicators
	ChainIO      io.ETHChainIO
	Vault        api.VestingVault
	ERC20        api.ERC20
	View         *cache.View
	Kernel       *kernel.Client
	Tracker      *orchestrator.Tracker
	Orchestrator *orchestrator.Orchestrator
	Publisher    iac.Publisher
	Store        cache.Store
}

// NewChainService connects to the claim chain only; enough for key management.
func NewChainService(cfg conf.Config, appName string) (*Service, error) {
	logger := logger2.NewELKLogger(appName, cfg.Logstash)
	logger.SetLogLevel(cfg.LogLevel)
	indicators := metrics.NewIndicators(appName)
	chainIO, err := io.NewETHChainIO(cfg.Chain.ClaimRPC, cfg.Account.KeyDir, logger, indicators.Tx, cfg.TxManagerParams())
	if err != nil {
		return nil, err
	}
	return &Service{Config: cfg, Logger: logger, Metrics: indicators, ChainIO: chainIO}, nil
}

// NewService wires the whole pipeline from cfg.
func NewService(ctx context.Context, cfg conf.Config, appName string) (*Service, error) {
	s, err := NewChainService(cfg, appName)
	if err != nil {
		return nil, err
	}
	if err = s.wire(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) wire(ctx context.Context) error {
	cfg := s.Config
	if cfg.Chain.ClaimChainID != 0 {
		chainID, err := s.ChainIO.GetChainID(ctx)
		if err != nil {
			return err
		}
		if chainID.Int64() != cfg.Chain.ClaimChainID {
			return fmt.Errorf("claim RPC serves chain %s, configured %d", chainID, cfg.Chain.ClaimChainID)
		}
	}

	vaultAddr, err := cfg.VaultAddress()
	if err != nil {
		return err
	}
	vaultABI, err := abis.GetContractABI("", abis.VestingVaultContract)
	if err != nil {
		return err
	}
	erc20ABI, err := abis.GetContractABI("", abis.ERC20Contract)
	if err != nil {
		return err
	}
	s.Vault = api.NewVestingVaultImpl(s.ChainIO, vaultAddr, vaultABI)
	s.ERC20 = api.NewERC20Impl(s.ChainIO, erc20ABI)

	if cfg.Cache.RedisAddr != "" {
		s.Store = cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	} else {
		s.Store = cache.NewMemoryStore()
	}
	s.View = cache.NewView(s.Vault, s.Store, cfg.CacheTTL(), s.ChainIO.GetLatestBlockTime, s.Logger)

	kernelID, err := cfg.KernelID()
	if err != nil {
		return err
	}
	signers, err := cfg.SignerAddresses()
	if err != nil {
		return err
	}
	var auth attestation.AuthChecker
	if len(signers) > 0 {
		auth = attestation.NewSignerSetChecker(signers, cfg.Kernel.Threshold)
	}

	s.Kernel, err = kernel.Dial(ctx, cfg.Chain.KernelRPC, kernel.Options{
		Timeout:   cfg.KernelTimeout(),
		RateLimit: cfg.KernelRateLimit(),
	}, s.Logger, s.Metrics.Kernel)
	if err != nil {
		return err
	}

	if len(cfg.Kafka.Brokers) > 0 {
		s.Publisher = iac.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	s.Tracker = orchestrator.NewTracker(s.Metrics.Pipeline)
	s.Orchestrator = &orchestrator.Orchestrator{
		Vault:    s.Vault,
		Token:    s.ERC20,
		Kernel:   s.Kernel,
		Verifier: attestation.NewVerifier(kernelID, auth),
		KernelCfg: orchestrator.KernelConfig{
			EntryID:     cfg.Kernel.EntryID,
			AccessToken: cfg.Kernel.AccessToken,
			KernelID:    kernelID,
		},
		Invalidator: s.View,
		Tracker:     s.Tracker,
		BlockTime:   s.ChainIO.GetLatestBlockTime,
		Logger:      s.Logger,
		Indicator:   s.Metrics.Pipeline,
	}
	if s.Publisher != nil {
		s.Orchestrator.Notifier = s.Publisher
	}
	return nil
}

// Token resolves a token argument, falling back to contract.token.
func (s *Service) Token(arg string) (common.Address, error) {
	if arg == "" {
		return s.Config.TokenAddress()
	}
	if !common.IsHexAddress(arg) {
		return common.Address{}, fmt.Errorf("%q is not an address", arg)
	}
	return common.HexToAddress(arg), nil
}

func (s *Service) Close() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			s.Logger.Warn("Failed to close kafka publisher", logger2.WithError(err))
		}
	}
	if r, ok := s.Store.(*cache.RedisStore); ok {
		_ = r.Close()
	}
	if s.Kernel != nil {
		s.Kernel.Close()
	}
	s.ChainIO.Close()
}
