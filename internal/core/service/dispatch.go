package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/blood-bank/internal/core/domain"
)

type operation struct {
	minArgs int
	maxArgs int
	run     func(ctx context.Context, s *BloodBankService, args []string) (any, error)
}

// operations maps invocation names to handlers. A handler returning a string
// has it written verbatim; anything else is encoded as JSON.
var operations = map[string]operation{
	"InitLedger":         {0, 0, initLedger},
	"initBloodInventory": {0, 0, initLedger},
	"registerDonor": {5, 6, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		in, err := parseRegistration(args)
		if err != nil {
			return nil, s.reject(ctx, "registerDonor", err)
		}
		donor, err := s.RegisterDonor(ctx, in)
		if err != nil {
			return nil, err
		}
		return registrationResult{Message: "Donor registered successfully.", DonorID: donor.DonorID}, nil
	}},
	"donate": {4, 4, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		in, err := parseDonation(args)
		if err != nil {
			return nil, s.reject(ctx, "donate", err)
		}
		updated, err := s.Donate(ctx, in)
		if err != nil {
			return nil, err
		}
		return donationResult{Message: "Donation recorded successfully.", UpdatedInventory: updated}, nil
	}},
	"updateBloodInventory": {2, 2, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		bt, delta, err := parseInventoryUpdate(args)
		if err != nil {
			return nil, s.reject(ctx, "updateBloodInventory", err)
		}
		return s.UpdateBloodInventory(ctx, bt, delta)
	}},
	"requestBlood": {3, 4, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		in, err := parseRequest(args)
		if err != nil {
			return nil, s.reject(ctx, "requestBlood", err)
		}
		return s.RequestBlood(ctx, in)
	}},
	"getDonor": {1, 1, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		return s.GetDonor(ctx, args[0])
	}},
	"getBloodInventory": {1, 1, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		return s.GetBloodInventory(ctx, domain.BloodType(args[0]))
	}},
	"getDonationHistory": {1, 1, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		return s.GetDonationHistory(ctx, args[0])
	}},
	"getRequest": {1, 1, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		return s.GetRequest(ctx, args[0])
	}},
	"addDonationToHistory": {2, 2, func(ctx context.Context, s *BloodBankService, args []string) (any, error) {
		detail, err := parseDonationDetail(args[1])
		if err != nil {
			return nil, s.reject(ctx, "addDonationToHistory", err)
		}
		return s.AddDonationToHistory(ctx, args[0], detail)
	}},
}

func initLedger(ctx context.Context, s *BloodBankService, _ []string) (any, error) {
	if err := s.InitBloodInventory(ctx); err != nil {
		return nil, err
	}
	return "Blood inventory initialized", nil
}

type registrationResult struct {
	Message string `json:"message"`
	DonorID string `json:"donorID"`
}

type donationResult struct {
	Message          string           `json:"message"`
	UpdatedInventory domain.Inventory `json:"updatedInventory"`
}

// Functions lists the names accepted by Invoke.
func Functions() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named operation with positional string arguments and returns
// its JSON payload. Errors are always *domain.Error.
func (s *BloodBankService) Invoke(ctx context.Context, function string, args []string) ([]byte, error) {
	op, ok := operations[function]
	if !ok {
		return nil, s.reject(ctx, "unknown", domain.NewValidationError(fmt.Sprintf("unknown function: %s", function)))
	}
	if len(args) < op.minArgs || len(args) > op.maxArgs {
		return nil, s.reject(ctx, function, arityError(function, op, len(args)))
	}

	result, err := op.run(ctx, s, args)
	if err != nil {
		return nil, err
	}

	if msg, ok := result.(string); ok {
		return []byte(msg), nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, domain.NewStorageError("", "encode", fmt.Sprintf("Failed to encode %s result", function), err)
	}
	return payload, nil
}

func arityError(function string, op operation, got int) error {
	want := fmt.Sprintf("%d", op.minArgs)
	if op.maxArgs != op.minArgs {
		want = fmt.Sprintf("%d to %d", op.minArgs, op.maxArgs)
	}
	return domain.NewValidationError(fmt.Sprintf("Incorrect number of arguments for %s: expected %s, got %d.", function, want, got))
}

// reject records an invocation turned away before any ledger access.
func (s *BloodBankService) reject(ctx context.Context, function string, err error) error {
	s.logRejected(function, uuid.NewString(), err)
	s.metrics.Observe(ctx, function, string(domain.KindOf(err)), time.Duration(0))
	return err
}
