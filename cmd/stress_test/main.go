package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/rl1809/blood-bank/internal/adapter/storage"
	"github.com/rl1809/blood-bank/internal/config"
	"github.com/rl1809/blood-bank/internal/core/domain"
	"github.com/rl1809/blood-bank/internal/core/service"
)

const (
	bloodType        = domain.BloodTypeA
	donationQuantity = 5
)

func main() {
	defaults := config.Default()

	app := cli.NewApp()
	app.Name = "bloodbank-stress"
	app.Usage = "concurrent donations and requests against one blood type"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "ledger-driver", Value: config.DriverMemory, Usage: "ledger backend `DRIVER`"},
		cli.StringFlag{Name: "ledger-dsn", Usage: "mysql or postgres `DSN`"},
		cli.StringFlag{Name: "ledger-path", Value: "stress.db", Usage: "bolt/sqlite file or leveldb directory `PATH`"},
		cli.StringFlag{Name: "redis-addr", Value: defaults.Ledger.RedisAddr, Usage: "redis `HOST:PORT`"},
		cli.IntFlag{Name: "donations", Value: 50, Usage: "concurrent donations `N`"},
		cli.IntFlag{Name: "requests", Value: 300, Usage: "concurrent single-unit requests `N`"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("stress test: %v", err)
	}
}

func run(c *cli.Context) error {
	ctx := context.Background()
	donations := c.Int("donations")
	requests := c.Int("requests")

	logDir, err := os.MkdirTemp("", "bloodbank-stress")
	if err != nil {
		return err
	}
	defer os.RemoveAll(logDir)
	logConfig := config.Default().Log
	logConfig.Directory = logDir
	logConfig.Console = false
	logConfig.Level = "warn"
	if err := logger.Initialise(logConfig.LoggerConfiguration()); err != nil {
		return err
	}
	defer logger.Finalise()

	// every contender may lose a round before committing
	store, err := storage.Open(ctx, config.LedgerConfig{
		Driver:      c.String("ledger-driver"),
		DSN:         c.String("ledger-dsn"),
		Path:        c.String("ledger-path"),
		RedisAddr:   c.String("redis-addr"),
		MaxAttempts: donations + requests,
	})
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	bloodBank := service.NewBloodBankService(store, nil)
	if err := bloodBank.InitBloodInventory(ctx); err != nil {
		return err
	}

	runID := uuid.New().String()[:8]
	donorID := func(i int) string { return "stress-" + runID + "-" + strconv.Itoa(i) }
	for i := 0; i < donations; i++ {
		_, err := bloodBank.RegisterDonor(ctx, service.RegistrationInput{
			DonorID:     donorID(i),
			DonorName:   "Stress Donor",
			BloodType:   bloodType,
			Age:         30,
			PhoneNumber: "555-0100",
		})
		if err != nil {
			return fmt.Errorf("failed to register donor: %w", err)
		}
	}

	// Phase 1: concurrent donations
	var donated atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < donations; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := bloodBank.Donate(ctx, service.DonationInput{
				DonorID:      donorID(id),
				BloodType:    bloodType,
				Quantity:     donationQuantity,
				DonationDate: time.Now().UTC().Format("2006-01-02"),
			})
			if err == nil {
				donated.Add(1)
			}
		}(i)
	}
	wg.Wait()
	donationElapsed := time.Since(start)

	afterDonations, err := bloodBank.GetBloodInventory(ctx, bloodType)
	if err != nil {
		return err
	}
	expected := domain.InitialStock + donations*donationQuantity

	// Phase 2: oversubscribed single-unit requests
	var served, refused atomic.Int32
	start = time.Now()

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bloodBank.RequestBlood(ctx, service.RequestInput{
				RequestID: "stress-request-" + uuid.New().String(),
				BloodType: bloodType,
				Quantity:  1,
			})
			if err == nil {
				served.Add(1)
			} else {
				refused.Add(1)
			}
		}()
	}
	wg.Wait()
	requestElapsed := time.Since(start)

	final, err := bloodBank.GetBloodInventory(ctx, bloodType)
	if err != nil {
		return err
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Ledger Driver:     %s\n", c.String("ledger-driver"))
	fmt.Printf("Donations:         %d/%d in %v\n", donated.Load(), donations, donationElapsed)
	fmt.Printf("After Donations:   %d (expected %d)\n", afterDonations.Quantity, expected)
	fmt.Printf("Requests Served:   %d/%d in %v\n", served.Load(), requests, requestElapsed)
	fmt.Printf("Requests Refused:  %d\n", refused.Load())
	fmt.Printf("Final Inventory:   %d\n", final.Quantity)
	fmt.Println("==========================================")

	pass := true
	if afterDonations.Quantity == expected && int(donated.Load()) == donations {
		fmt.Printf("PASS: all %d donations reflected\n", donations)
	} else {
		fmt.Printf("FAIL: expected %d after donations, got %d\n", expected, afterDonations.Quantity)
		pass = false
	}

	wantServed := requests
	if expected < requests {
		wantServed = expected
	}
	if int(served.Load()) == wantServed && final.Quantity == expected-wantServed {
		fmt.Printf("PASS: %d requests served, inventory never negative\n", wantServed)
	} else {
		fmt.Printf("FAIL: expected %d served and %d left, got %d and %d\n",
			wantServed, expected-wantServed, served.Load(), final.Quantity)
		pass = false
	}

	if !pass {
		return fmt.Errorf("stress test failed")
	}
	return nil
}
