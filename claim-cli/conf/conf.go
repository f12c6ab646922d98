package conf

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/satlayer/vesting-claim/claim-api/chainio/types"
)

const (
	EnvConfig = "VESTCLAIM_CONFIG"
	dirName   = "vestclaim"
)

// Config is loaded once and passed by value; nothing mutates it afterwards.
type Config struct {
	LogLevel  string    `mapstructure:"logLevel" toml:"logLevel"`
	Logstash  string    `mapstructure:"logstash" toml:"logstash"`
	Account   Account   `mapstructure:"account" toml:"account"`
	Chain     Chain     `mapstructure:"chain" toml:"chain"`
	Kernel    Kernel    `mapstructure:"kernel" toml:"kernel"`
	Contract  Contract  `mapstructure:"contract" toml:"contract"`
	TxManager TxManager `mapstructure:"txManager" toml:"txManager"`
	Cache     Cache     `mapstructure:"cache" toml:"cache"`
	Kafka     Kafka     `mapstructure:"kafka" toml:"kafka"`
	Gateway   Gateway   `mapstructure:"gateway" toml:"gateway"`
}

type Account struct {
	KeyDir string `mapstructure:"keyDir" toml:"keyDir"`
}

type Chain struct {
	ClaimRPC     string `mapstructure:"claimRPC" toml:"claimRPC"`
	KernelRPC    string `mapstructure:"kernelRPC" toml:"kernelRPC"`
	ClaimChainID int64  `mapstructure:"claimChainID" toml:"claimChainID"`
}

type Kernel struct {
	EntryID        string   `mapstructure:"entryID" toml:"entryID"`
	AccessToken    string   `mapstructure:"accessToken" toml:"accessToken"`
	KernelID       string   `mapstructure:"kernelID" toml:"kernelID"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds" toml:"timeoutSeconds"`
	RateLimit      float64  `mapstructure:"rateLimit" toml:"rateLimit"`
	Signers        []string `mapstructure:"signers" toml:"signers"`
	Threshold      int      `mapstructure:"threshold" toml:"threshold"`
}

type Contract struct {
	Token string `mapstructure:"token" toml:"token"`
	Vault string `mapstructure:"vault" toml:"vault"`
}

type TxManager struct {
	ConfirmationTimeoutSeconds int     `mapstructure:"confirmationTimeoutSeconds" toml:"confirmationTimeoutSeconds"`
	GasFeeCapAdjustmentRate    int64   `mapstructure:"gasFeeCapAdjustmentRate" toml:"gasFeeCapAdjustmentRate"`
	GasLimitAdjustmentRate     float64 `mapstructure:"gasLimitAdjustmentRate" toml:"gasLimitAdjustmentRate"`
	GasLimit                   uint64  `mapstructure:"gasLimit" toml:"gasLimit"`
}

type Cache struct {
	RedisAddr     string `mapstructure:"redisAddr" toml:"redisAddr"`
	RedisPassword string `mapstructure:"redisPassword" toml:"redisPassword"`
	RedisDB       int    `mapstructure:"redisDB" toml:"redisDB"`
	TTLSeconds    int    `mapstructure:"ttlSeconds" toml:"ttlSeconds"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers" toml:"brokers"`
	Topic   string   `mapstructure:"topic" toml:"topic"`
	GroupID string   `mapstructure:"groupID" toml:"groupID"`
}

type Gateway struct {
	Listen  string `mapstructure:"listen" toml:"listen"`
	Metrics string `mapstructure:"metrics" toml:"metrics"`
}

// Default is the configuration written on first run.
func Default(home string) Config {
	params := types.DefaultTxManagerParams()
	return Config{
		LogLevel: "info",
		Account:  Account{KeyDir: filepath.Join(home, ".config", dirName, "keystore")},
		Chain: Chain{
			ClaimRPC:     "http://127.0.0.1:8545",
			KernelRPC:    "http://127.0.0.1:8546",
			ClaimChainID: 31337,
		},
		Kernel: Kernel{
			KernelID:       "1",
			TimeoutSeconds: 30,
			RateLimit:      5,
		},
		TxManager: TxManager{
			ConfirmationTimeoutSeconds: int(params.ConfirmationTimeout / time.Second),
			GasFeeCapAdjustmentRate:    params.ETHGasFeeCapAdjustmentRate,
			GasLimitAdjustmentRate:     params.ETHGasLimitAdjustmentRate,
			GasLimit:                   params.GasLimit,
		},
		Cache: Cache{TTLSeconds: 15},
		Kafka: Kafka{Topic: "vestclaim.outcomes", GroupID: "vestclaim-gateway"},
		Gateway: Gateway{
			Listen:  "0.0.0.0:8080",
			Metrics: "0.0.0.0:9090",
		},
	}
}

// Load reads the file named by VESTCLAIM_CONFIG, or ~/.config/vestclaim/config.toml,
// creating the latter with defaults when it does not exist.
func Load() (Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".config", dirName, "config.toml")
		if err = writeDefault(path, Default(home)); err != nil {
			return Config{}, err
		}
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config file invalid: %w", err)
	}
	return c, nil
}

func writeDefault(path string, c Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(c)
}

func (c Config) TxManagerParams() types.TxManagerParams {
	return types.TxManagerParams{
		ConfirmationTimeout:        time.Duration(c.TxManager.ConfirmationTimeoutSeconds) * time.Second,
		ETHGasFeeCapAdjustmentRate: c.TxManager.GasFeeCapAdjustmentRate,
		ETHGasLimitAdjustmentRate:  c.TxManager.GasLimitAdjustmentRate,
		GasLimit:                   c.TxManager.GasLimit,
	}
}

func (c Config) KernelTimeout() time.Duration {
	return time.Duration(c.Kernel.TimeoutSeconds) * time.Second
}

func (c Config) KernelRateLimit() rate.Limit {
	if c.Kernel.RateLimit <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.Kernel.RateLimit)
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c Config) KernelID() (*big.Int, error) {
	id, ok := new(big.Int).SetString(c.Kernel.KernelID, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("kernel.kernelID %q is not a non-negative integer", c.Kernel.KernelID)
	}
	return id, nil
}

func (c Config) SignerAddresses() ([]common.Address, error) {
	out := make([]common.Address, 0, len(c.Kernel.Signers))
	for _, s := range c.Kernel.Signers {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("kernel.signers: %q is not an address", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

func (c Config) VaultAddress() (common.Address, error) {
	return parseAddress("contract.vault", c.Contract.Vault)
}

func (c Config) TokenAddress() (common.Address, error) {
	return parseAddress("contract.token", c.Contract.Token)
}

func parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%s is empty", field)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: %q is not an address", field, value)
	}
	return common.HexToAddress(value), nil
}
