package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// WSListenAddrKey is the address the websocket envelope server binds on
	WSListenAddrKey = "WS_LISTEN_ADDR"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbTypeKey selects the storage backend, either "badger" or "inmemory"
	DbTypeKey = "DB_TYPE"
	// ChainEndpointsKey overrides the RPC endpoints as a comma separated
	// list of chainId=url pairs, e.g. "0x1=https://...,0x89=https://..."
	ChainEndpointsKey = "CHAIN_ENDPOINTS"
	// WalletNameKey is the human readable wallet name announced to dApps
	WalletNameKey = "WALLET_NAME"
	// WalletRDNSKey is the reverse-DNS identifier announced to dApps
	WalletRDNSKey = "WALLET_RDNS"
	// WalletIconKey is the data URI of the wallet icon announced to dApps
	WalletIconKey = "WALLET_ICON"

	DbLocation = "db"

	DbTypeBadger   = "badger"
	DbTypeInMemory = "inmemory"
)

// defaultChainEndpoints covers the chains the daemon ships support for.
var defaultChainEndpoints = map[string]string{
	"0x1":      "https://eth.llamarpc.com",
	"0x5":      "https://rpc.ankr.com/eth_goerli",
	"0x89":     "https://polygon-rpc.com",
	"0xa":      "https://mainnet.optimism.io",
	"0xa4b1":   "https://arb1.arbitrum.io/rpc",
	"0x2105":   "https://mainnet.base.org",
	"0x38":     "https://bsc-dataseed.binance.org",
	"0xaa36a7": "https://rpc.sepolia.org",
}

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("tide-daemon", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("TIDE")
	vip.AutomaticEnv()

	vip.SetDefault(WSListenAddrKey, "localhost:9745")
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DbTypeKey, DbTypeBadger)
	vip.SetDefault(WalletNameKey, "Tide Wallet")
	vip.SetDefault(WalletRDNSKey, "com.tidewallet")
	vip.SetDefault(WalletIconKey, "")

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// GetDatadir ...
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory the badger store lives in.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetChainEndpoints returns the chainId -> RPC url table, applying any
// override from the environment on top of the built-in defaults.
func GetChainEndpoints() map[string]string {
	endpoints := make(map[string]string, len(defaultChainEndpoints))
	for chainID, url := range defaultChainEndpoints {
		endpoints[chainID] = url
	}

	if raw := GetString(ChainEndpointsKey); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				log.Warnf("config: skipping malformed chain endpoint %q", pair)
				continue
			}
			endpoints[parts[0]] = parts[1]
		}
	}
	return endpoints
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if addr := GetString(WSListenAddrKey); addr == "" {
		return fmt.Errorf("listen address must not be null")
	}

	dbType := GetString(DbTypeKey)
	if dbType != DbTypeBadger && dbType != DbTypeInMemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DbTypeBadger, DbTypeInMemory,
		)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
