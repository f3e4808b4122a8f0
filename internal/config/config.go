// Package config holds the server configuration. Values are populated from
// command-line flags, each of which can also be set through a BLOODBANK_*
// environment variable.
package config

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/logger"
)

// Ledger drivers accepted by LedgerConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverLevelDB  = "leveldb"
	DriverRedis    = "redis"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var drivers = []string{DriverMemory, DriverBolt, DriverLevelDB, DriverRedis, DriverMySQL, DriverPostgres, DriverSQLite}

type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	InitInventory bool
	Ledger        LedgerConfig
	Log           LogConfig
}

type LedgerConfig struct {
	Driver string
	// DSN is used by mysql and postgres.
	DSN string
	// Path is the database file (bolt, sqlite) or directory (leveldb).
	Path        string
	RedisAddr   string
	MaxAttempts int
}

type LogConfig struct {
	Directory string
	File      string
	Size      int
	Count     int
	Console   bool
	Level     string
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		Ledger: LedgerConfig{
			Driver:      DriverBolt,
			Path:        "bloodbank.db",
			RedisAddr:   "localhost:6379",
			MaxAttempts: 5,
		},
		Log: LogConfig{
			Directory: "log",
			File:      "bloodbank.log",
			Size:      1048576,
			Count:     10,
			Console:   true,
			Level:     "info",
		},
	}
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		return fmt.Errorf("at least one of http and grpc listen addresses is required")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Ledger.Validate()
}

// minimums enforced by logger.Initialise
const (
	minLogSize  = 20000
	minLogCount = 10
)

func (l LogConfig) Validate() error {
	if l.Directory == "" || l.File == "" {
		return fmt.Errorf("log directory and file are required")
	}
	if l.Size < minLogSize {
		return fmt.Errorf("log size %d is below the minimum %d", l.Size, minLogSize)
	}
	if l.Count < minLogCount {
		return fmt.Errorf("log count %d is below the minimum %d", l.Count, minLogCount)
	}
	return nil
}

func (l LedgerConfig) Validate() error {
	switch l.Driver {
	case DriverMemory:
	case DriverBolt, DriverLevelDB, DriverSQLite:
		if l.Path == "" {
			return fmt.Errorf("ledger driver %s requires a path", l.Driver)
		}
	case DriverMySQL, DriverPostgres:
		if l.DSN == "" {
			return fmt.Errorf("ledger driver %s requires a dsn", l.Driver)
		}
	case DriverRedis:
		if l.RedisAddr == "" {
			return fmt.Errorf("ledger driver redis requires an address")
		}
	default:
		return fmt.Errorf("unknown ledger driver %q (want one of %s)", l.Driver, strings.Join(drivers, ", "))
	}
	if l.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}
	return nil
}

// LoggerConfiguration converts the log settings for logger.Initialise.
func (l LogConfig) LoggerConfiguration() logger.Configuration {
	return logger.Configuration{
		Directory: l.Directory,
		File:      l.File,
		Size:      l.Size,
		Count:     l.Count,
		Console:   l.Console,
		Levels: map[string]string{
			logger.DefaultTag: l.Level,
		},
	}
}
