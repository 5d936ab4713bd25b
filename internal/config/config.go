package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// RelaysKey is the comma separated list of relay urls to connect to
	RelaysKey = "RELAYS"
	// MostroPubkeyKey is the hex or npub public key of the Mostro daemon
	MostroPubkeyKey = "MOSTRO_PUBKEY"
	// DatadirKey is the local data directory to store the trade key allocations
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// RequestTimeoutKey is how long a request waits for the Mostro response
	RequestTimeoutKey = "REQUEST_TIMEOUT"
	// DBTypeKey is used to switch the trade key store between those supported
	DBTypeKey = "DB_TYPE"
	// HistoryHoursKey is how far back order listings are loaded on connect.
	// 0 loads them all.
	HistoryHoursKey = "HISTORY_HOURS"
	// PublishRateLimitKey is the max number of events published per second
	PublishRateLimitKey = "PUBLISH_RATE_LIMIT"
	// MnemonicKey is the BIP39 mnemonic the keys are derived from. It is
	// cleared once read.
	MnemonicKey = "MNEMONIC"
	// StatsIntervalKey defines the interval for printing memory statistics,
	// 0 disables them
	StatsIntervalKey = "STATS_INTERVAL"
	// MetricsFileKey is the file the prometheus metrics are dumped to on exit
	MetricsFileKey = "METRICS_FILE"

	DbLocation = "db"

	DBTypeBadger   = "badger"
	DBTypeInMemory = "inmemory"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("mostro-go", false)
	defaultRelays  = []string{"wss://relay.mostro.network", "wss://nos.lol"}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("MOSTRO")
	vip.AutomaticEnv()

	vip.SetDefault(RelaysKey, strings.Join(defaultRelays, ","))
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(RequestTimeoutKey, 30*time.Second)
	vip.SetDefault(DBTypeKey, DBTypeBadger)
	vip.SetDefault(HistoryHoursKey, 24)
	vip.SetDefault(PublishRateLimitKey, 10)
	vip.SetDefault(StatsIntervalKey, 0)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	if GetString(DBTypeKey) == DBTypeInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetRelays returns the relay urls, env vars carry them comma separated.
func GetRelays() []string {
	relays := make([]string, 0)
	for _, r := range strings.Split(GetString(RelaysKey), ",") {
		if r = strings.TrimSpace(r); r != "" {
			relays = append(relays, r)
		}
	}
	return relays
}

// GetMnemonic returns the configured mnemonic words and clears them.
func GetMnemonic() []string {
	mnemonic := strings.Fields(GetString(MnemonicKey))
	vip.Set(MnemonicKey, "")
	return mnemonic
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func GetHistory() time.Duration {
	return time.Duration(GetInt(HistoryHoursKey)) * time.Hour
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if len(GetRelays()) <= 0 {
		return fmt.Errorf("missing relays")
	}

	if pubkey := GetString(MostroPubkeyKey); pubkey != "" {
		if _, err := nostr.NormalizePublicKey(pubkey); err != nil {
			return fmt.Errorf("%s is not a valid hex or npub key", MostroPubkeyKey)
		}
	}

	if GetDuration(RequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be a positive duration", RequestTimeoutKey)
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBTypeBadger && dbType != DBTypeInMemory {
		return fmt.Errorf(
			"%s must be either %s or %s", DBTypeKey, DBTypeBadger, DBTypeInMemory,
		)
	}

	if GetInt(HistoryHoursKey) < 0 {
		return fmt.Errorf("%s must not be negative", HistoryHoursKey)
	}

	if GetFloat(PublishRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", PublishRateLimitKey)
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("%s must be in range [%d, %d]",
			LogLevelKey, log.PanicLevel, log.TraceLevel)
	}

	return nil
}

func initDatadir() error {
	if GetString(DBTypeKey) != DBTypeBadger {
		return nil
	}
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
