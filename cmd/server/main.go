package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"google.golang.org/grpc"

	"github.com/rl1809/blood-bank/internal/adapter/handler"
	"github.com/rl1809/blood-bank/internal/adapter/metrics"
	"github.com/rl1809/blood-bank/internal/adapter/storage"
	"github.com/rl1809/blood-bank/internal/config"
	"github.com/rl1809/blood-bank/internal/core/service"
)

func main() {
	app := cli.NewApp()
	app.Name = "bloodbank-server"
	app.Usage = "blood bank ledger over HTTP and gRPC"
	app.Flags = serverFlags()
	app.Action = func(c *cli.Context) error {
		return run(configFromContext(c))
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("bloodbank-server: %v", err)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Log.Directory, 0o755); err != nil {
		return err
	}
	if err := logger.Initialise(cfg.Log.LoggerConfiguration()); err != nil {
		return err
	}
	defer logger.Finalise()
	mainLog := logger.New("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Ledger)
	if err != nil {
		mainLog.Criticalf("failed to open %s ledger: %s", cfg.Ledger.Driver, err)
		return err
	}
	defer store.Close()
	mainLog.Infof("opened %s ledger", cfg.Ledger.Driver)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		return err
	}

	bloodBank := service.NewBloodBankService(store, recorder)

	if cfg.InitInventory {
		if err := bloodBank.InitBloodInventory(ctx); err != nil {
			mainLog.Criticalf("failed to initialize inventory: %s", err)
			return err
		}
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(logger.New("grpc"))))
		handler.RegisterLedgerServer(grpcServer, handler.NewGRPCHandler(bloodBank))

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}

		go func() {
			mainLog.Infof("gRPC server listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				mainLog.Errorf("gRPC server error: %s", err)
			}
		}()
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpHandler := handler.NewHTTPHandler(bloodBank)
		mux := http.NewServeMux()
		mux.HandleFunc("/health", httpHandler.HealthCheck)
		mux.HandleFunc("/api/invoke", httpHandler.Invoke)
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		httpServer = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: mux,
		}

		go func() {
			mainLog.Infof("HTTP server listening on %s", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
				mainLog.Errorf("HTTP server error: %s", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("shutting down...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		mainLog.Info("HTTP server stopped")
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
		mainLog.Info("gRPC server stopped")
	}

	return nil
}
