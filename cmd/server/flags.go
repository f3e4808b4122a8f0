package main

import (
	"github.com/urfave/cli"

	"github.com/rl1809/blood-bank/internal/config"
)

func serverFlags() []cli.Flag {
	defaults := config.Default()

	return []cli.Flag{
		cli.StringFlag{
			Name:   "http-addr",
			Value:  defaults.HTTPAddr,
			Usage:  "HTTP listen `ADDRESS`, empty to disable",
			EnvVar: "BLOODBANK_HTTP_ADDR",
		},
		cli.StringFlag{
			Name:   "grpc-addr",
			Value:  defaults.GRPCAddr,
			Usage:  "gRPC listen `ADDRESS`, empty to disable",
			EnvVar: "BLOODBANK_GRPC_ADDR",
		},
		cli.BoolFlag{
			Name:   "init-inventory",
			Usage:  "seed every blood type with the initial stock on startup",
			EnvVar: "BLOODBANK_INIT_INVENTORY",
		},
		cli.StringFlag{
			Name:   "ledger-driver",
			Value:  defaults.Ledger.Driver,
			Usage:  "ledger backend `DRIVER` [memory|bolt|leveldb|redis|mysql|postgres|sqlite]",
			EnvVar: "BLOODBANK_LEDGER_DRIVER",
		},
		cli.StringFlag{
			Name:   "ledger-dsn",
			Usage:  "mysql or postgres `DSN`",
			EnvVar: "BLOODBANK_LEDGER_DSN",
		},
		cli.StringFlag{
			Name:   "ledger-path",
			Value:  defaults.Ledger.Path,
			Usage:  "bolt/sqlite database file or leveldb directory `PATH`",
			EnvVar: "BLOODBANK_LEDGER_PATH",
		},
		cli.StringFlag{
			Name:   "redis-addr",
			Value:  defaults.Ledger.RedisAddr,
			Usage:  "redis `HOST:PORT`",
			EnvVar: "BLOODBANK_REDIS_ADDR",
		},
		cli.IntFlag{
			Name:   "max-attempts",
			Value:  defaults.Ledger.MaxAttempts,
			Usage:  "transaction attempts on write conflicts `N`",
			EnvVar: "BLOODBANK_MAX_ATTEMPTS",
		},
		cli.StringFlag{
			Name:   "log-dir",
			Value:  defaults.Log.Directory,
			Usage:  "log `DIRECTORY`",
			EnvVar: "BLOODBANK_LOG_DIR",
		},
		cli.StringFlag{
			Name:   "log-file",
			Value:  defaults.Log.File,
			Usage:  "log file `NAME`",
			EnvVar: "BLOODBANK_LOG_FILE",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  defaults.Log.Level,
			Usage:  "log `LEVEL` [trace|debug|info|warn|error|critical]",
			EnvVar: "BLOODBANK_LOG_LEVEL",
		},
		cli.BoolTFlag{
			Name:   "log-console",
			Usage:  "also write log lines to the console",
			EnvVar: "BLOODBANK_LOG_CONSOLE",
		},
	}
}

func configFromContext(c *cli.Context) config.Config {
	cfg := config.Default()

	cfg.HTTPAddr = c.String("http-addr")
	cfg.GRPCAddr = c.String("grpc-addr")
	cfg.InitInventory = c.Bool("init-inventory")

	cfg.Ledger.Driver = c.String("ledger-driver")
	cfg.Ledger.DSN = c.String("ledger-dsn")
	cfg.Ledger.Path = c.String("ledger-path")
	cfg.Ledger.RedisAddr = c.String("redis-addr")
	cfg.Ledger.MaxAttempts = c.Int("max-attempts")

	cfg.Log.Directory = c.String("log-dir")
	cfg.Log.File = c.String("log-file")
	cfg.Log.Level = c.String("log-level")
	cfg.Log.Console = c.BoolT("log-console")

	return cfg
}
