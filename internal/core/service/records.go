package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rl1809/blood-bank/internal/core/domain"
	"github.com/rl1809/blood-bank/internal/port"
)

// getRecord decodes the value at key into out. It reports false when the key is
// absent or empty.
func getRecord(ctx context.Context, tx port.Ledger, key string, out any) (bool, error) {
	data, err := tx.Get(ctx, key)
	if err != nil {
		return false, domain.NewStorageError(key, "get", fmt.Sprintf("Failed to read %s", key), err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, domain.NewStorageError(key, "decode", fmt.Sprintf("Failed to parse %s", key), err)
	}
	return true, nil
}

func putRecord(ctx context.Context, tx port.Ledger, key string, v any, failure string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return domain.NewStorageError(key, "encode", failure, err)
	}
	if err := tx.Put(ctx, key, data); err != nil {
		return domain.NewStorageError(key, "put", failure, err)
	}
	return nil
}

func loadInventory(ctx context.Context, tx port.Ledger, bt domain.BloodType, notFound string) (domain.Inventory, error) {
	key := domain.InventoryKey(bt)
	var inv domain.Inventory
	found, err := getRecord(ctx, tx, key, &inv)
	if err != nil {
		return inv, err
	}
	if !found {
		return inv, domain.NewNotFoundError(key, notFound)
	}
	return inv, nil
}

func saveInventory(ctx context.Context, tx port.Ledger, inv domain.Inventory) error {
	return putRecord(ctx, tx, domain.InventoryKey(inv.BloodType), inv,
		fmt.Sprintf("Failed to update inventory for blood type %s", inv.BloodType))
}

// Donors and requests share the key space, so a record only counts as a donor
// when its stored donorID matches the key it was read from.
func loadDonor(ctx context.Context, tx port.Ledger, donorID string) (domain.Donor, error) {
	var donor domain.Donor
	found, err := getRecord(ctx, tx, donorID, &donor)
	if err != nil {
		return domain.Donor{}, err
	}
	if !found || donor.DonorID != donorID {
		return domain.Donor{}, domain.NewNotFoundError(donorID, fmt.Sprintf("Donor with ID %s does not exist.", donorID))
	}
	donor.DonationHistory = donor.History()
	return donor, nil
}

func saveDonor(ctx context.Context, tx port.Ledger, donorID string, donor domain.Donor) error {
	return putRecord(ctx, tx, donorID, donor, fmt.Sprintf("Failed to save donor %s", donorID))
}

// loadRequest reports false when nothing is stored at requestID. A record of
// another kind under the same key is returned as found with a mismatched id.
func loadRequest(ctx context.Context, tx port.Ledger, requestID string) (domain.Request, bool, error) {
	var request domain.Request
	found, err := getRecord(ctx, tx, requestID, &request)
	if err != nil {
		return domain.Request{}, false, err
	}
	return request, found, nil
}

func idInUse(id string) error {
	return domain.NewConflictError(fmt.Sprintf("ID %s is already used by another record.", id))
}

func noInventory(bt domain.BloodType) string {
	return fmt.Sprintf("No inventory found for blood type %s", bt)
}
