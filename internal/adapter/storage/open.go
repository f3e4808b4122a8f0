package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/blood-bank/internal/config"
	"github.com/rl1809/blood-bank/internal/port"
)

// Open constructs the ledger backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.LedgerConfig) (port.LedgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryLedger(cfg.MaxAttempts), nil
	case config.DriverBolt:
		return NewBoltLedger(cfg.Path)
	case config.DriverLevelDB:
		return NewLevelDBLedger(cfg.Path)
	case config.DriverSQLite:
		return OpenSQLiteLedger(ctx, cfg.Path, cfg.MaxAttempts)
	case config.DriverMySQL:
		return OpenMySQLLedger(ctx, cfg.DSN, cfg.MaxAttempts)
	case config.DriverPostgres:
		return OpenPostgresLedger(ctx, cfg.DSN, cfg.MaxAttempts)
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		return NewRedisLedger(rdb, cfg.MaxAttempts), nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
