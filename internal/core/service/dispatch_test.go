package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rl1809/blood-bank/internal/core/domain"
)

func invoke(t *testing.T, svc *BloodBankService, function string, args ...string) []byte {
	t.Helper()
	payload, err := svc.Invoke(context.Background(), function, args)
	if err != nil {
		t.Fatalf("%s%v failed: %v", function, args, err)
	}
	return payload
}

func TestInvoke_Payloads(t *testing.T) {
	svc := NewBloodBankService(newMockStore(), nil)

	if got := string(invoke(t, svc, "InitLedger")); got != "Blood inventory initialized" {
		t.Errorf("unexpected init payload %q", got)
	}

	got := string(invoke(t, svc, "registerDonor", "D1", "Alice", "A", "30", "555-0100"))
	if got != `{"message":"Donor registered successfully.","donorID":"D1"}` {
		t.Errorf("unexpected register payload %s", got)
	}

	got = string(invoke(t, svc, "donate", "D1", "A", "50", "2024-01-01"))
	if got != `{"message":"Donation recorded successfully.","updatedInventory":{"bloodType":"A","quantity":150}}` {
		t.Errorf("unexpected donate payload %s", got)
	}

	got = string(invoke(t, svc, "updateBloodInventory", "A", "-10"))
	if got != `{"bloodType":"A","quantity":140}` {
		t.Errorf("unexpected update payload %s", got)
	}

	got = string(invoke(t, svc, "requestBlood", "R1", "A", "40", "2024-01-02T10:00:00.000Z"))
	if got != `{"request":{"requestID":"R1","bloodType":"A","quantity":40,"timestamp":"2024-01-02T10:00:00.000Z"},"updatedInventory":{"bloodType":"A","quantity":100}}` {
		t.Errorf("unexpected request payload %s", got)
	}

	got = string(invoke(t, svc, "getRequest", "R1"))
	if got != `{"requestID":"R1","bloodType":"A","quantity":40,"timestamp":"2024-01-02T10:00:00.000Z"}` {
		t.Errorf("unexpected getRequest payload %s", got)
	}

	got = string(invoke(t, svc, "getBloodInventory", "A"))
	if got != `{"bloodType":"A","quantity":100}` {
		t.Errorf("unexpected inventory payload %s", got)
	}

	if got = string(invoke(t, svc, "getDonationHistory", "D1")); got != "[]" {
		t.Errorf("unexpected empty history payload %s", got)
	}

	got = string(invoke(t, svc, "addDonationToHistory", "D1", `{"date":"2024-01-01","quantity":50}`))
	var donor domain.Donor
	if err := json.Unmarshal([]byte(got), &donor); err != nil {
		t.Fatalf("decode donor failed: %v", err)
	}
	if len(donor.DonationHistory) != 1 || donor.LastDonationDate == nil || *donor.LastDonationDate != "2024-01-01" {
		t.Errorf("unexpected donor after history append %+v", donor)
	}

	if got = string(invoke(t, svc, "getDonationHistory", "D1")); got != `[{"date":"2024-01-01","quantity":50}]` {
		t.Errorf("unexpected history payload %s", got)
	}

	got = string(invoke(t, svc, "getDonor", "D1"))
	if got != `{"donorID":"D1","donorName":"Alice","bloodType":"A","age":30,"phoneNumber":"555-0100","lastDonationDate":"2024-01-01","donationHistory":[{"date":"2024-01-01","quantity":50}]}` {
		t.Errorf("unexpected donor payload %s", got)
	}
}

func TestInvoke_RegisterOverwriteFlag(t *testing.T) {
	svc := NewBloodBankService(newMockStore(), nil)
	invoke(t, svc, "registerDonor", "D1", "Alice", "A", "30", "555")

	_, err := svc.Invoke(context.Background(), "registerDonor", []string{"D1", "Bob", "B", "31", "556"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict without overwrite, got: %v", err)
	}

	_, err = svc.Invoke(context.Background(), "registerDonor", []string{"D1", "Bob", "B", "31", "556", "maybe"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for bad flag, got: %v", err)
	}

	invoke(t, svc, "registerDonor", "D1", "Bob", "B", "31", "556", "true")
	var donor domain.Donor
	json.Unmarshal(invoke(t, svc, "getDonor", "D1"), &donor)
	if donor.DonorName != "Bob" {
		t.Errorf("expected overwrite, got %+v", donor)
	}
}

func TestInvoke_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	invoke(t, svc, "registerDonor", "D1", "Alice", "A", "30", "555")

	tests := []struct {
		name     string
		function string
		args     []string
		kind     domain.ErrorKind
		message  string
	}{
		{"unknown function", "deleteDonor", []string{"D1"}, domain.KindValidation, "unknown function: deleteDonor"},
		{"too few args", "donate", []string{"D1", "A", "5"}, domain.KindValidation, "Incorrect number of arguments for donate: expected 4, got 3."},
		{"too many args", "requestBlood", []string{"R1", "A", "5", "2024-01-01", "x"}, domain.KindValidation, "Incorrect number of arguments for requestBlood: expected 3 to 4, got 5."},
		{"missing register field", "registerDonor", []string{"D2", "", "A", "30", "555"}, domain.KindValidation, msgRegistrationFields},
		{"non-numeric age", "registerDonor", []string{"D2", "Bob", "A", "thirty", "555"}, domain.KindValidation, `Invalid age "thirty": must be a non-negative integer.`},
		{"non-numeric donation", "donate", []string{"D1", "A", "abc", "2024-01-01"}, domain.KindValidation, msgDonationFields},
		{"fractional donation", "donate", []string{"D1", "A", "2.5", "2024-01-01"}, domain.KindValidation, msgDonationFields},
		{"zero donation", "donate", []string{"D1", "A", "0", "2024-01-01"}, domain.KindValidation, msgInvalidQuantity},
		{"non-numeric update", "updateBloodInventory", []string{"A", "ten"}, domain.KindValidation, msgInventoryFields},
		{"unknown update type", "updateBloodInventory", []string{"Z", "10"}, domain.KindValidation, `Invalid blood type "Z": must be one of A, B, O, AB.`},
		{"non-numeric request", "requestBlood", []string{"R1", "A", "lots"}, domain.KindValidation, msgInvalidQuantity},
		{"negative request", "requestBlood", []string{"R1", "A", "-1"}, domain.KindValidation, msgInvalidQuantity},
		{"malformed details", "addDonationToHistory", []string{"D1", "{"}, domain.KindValidation, msgDonationDetails},
		{"details without quantity", "addDonationToHistory", []string{"D1", `{"date":"2024-01-01"}`}, domain.KindValidation, msgDonationDetails},
		{"details with unsupported field", "addDonationToHistory", []string{"D1", `{"date":"2024-01-01","quantity":1,"hospital":"St. Mary"}`}, domain.KindValidation, `Unsupported field "hospital" in donation details: expected date, quantity and bloodType.`},
		{"details followed by another value", "addDonationToHistory", []string{"D1", `{"date":"2024-01-01","quantity":1} {}`}, domain.KindValidation, msgDonationDetails},
		{"unknown donor", "getDonor", []string{"D9"}, domain.KindNotFound, "Donor with ID D9 does not exist."},
		{"insufficient", "requestBlood", []string{"R1", "O", "500"}, domain.KindConflict, "Insufficient blood of type O. Available: 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := svc.Invoke(context.Background(), tt.function, tt.args)
			if err == nil {
				t.Fatalf("expected error, got payload %s", payload)
			}
			if kind := domain.KindOf(err); kind != tt.kind {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, kind, err)
			}
			if err.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Error())
			}
		})
	}

	for _, bt := range domain.BloodTypes {
		if q := quantityOf(t, svc, bt); q != 100 {
			t.Errorf("expected %s unchanged at 100, got %d", bt, q)
		}
	}
}

func TestInvoke_RecordsRejectedParses(t *testing.T) {
	metrics := &mockMetrics{}
	svc := NewBloodBankService(newMockStore(), metrics)

	svc.Invoke(context.Background(), "donate", []string{"D1", "A", "abc", "2024-01-01"})
	if got := metrics.last(); got != (observation{"donate", "validation"}) {
		t.Errorf("unexpected observation %+v", got)
	}

	svc.Invoke(context.Background(), "nope", nil)
	if got := metrics.last(); got != (observation{"unknown", "validation"}) {
		t.Errorf("unexpected observation %+v", got)
	}

	svc.Invoke(context.Background(), "getDonor", []string{"D1"})
	if got := metrics.last(); got != (observation{"getDonor", "not found"}) {
		t.Errorf("unexpected observation %+v", got)
	}
}

func TestFunctions(t *testing.T) {
	names := Functions()
	if len(names) != len(operations) {
		t.Fatalf("expected %d names, got %d", len(operations), len(names))
	}
	for _, want := range []string{"InitLedger", "donate", "getRequest", "requestBlood"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %s in %v", want, names)
		}
	}
}
