package domain

import (
	"fmt"
	"strings"
)

type BloodType string

const (
	BloodTypeA  BloodType = "A"
	BloodTypeB  BloodType = "B"
	BloodTypeO  BloodType = "O"
	BloodTypeAB BloodType = "AB"
)

const (
	inventoryKeyPrefix = "inventory_"
	InitialStock       = 100
)

// BloodTypes lists the fixed inventory buckets in seeding order.
var BloodTypes = []BloodType{BloodTypeA, BloodTypeB, BloodTypeO, BloodTypeAB}

func ParseBloodType(s string) (BloodType, error) {
	for _, bt := range BloodTypes {
		if string(bt) == s {
			return bt, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("Invalid blood type %q: must be one of A, B, O, AB.", s))
}

// InventoryKey returns the ledger key holding the counter for bt.
func InventoryKey(bt BloodType) string {
	return inventoryKeyPrefix + string(bt)
}

// IsInventoryKey reports whether key lies in the namespace reserved for inventory counters.
func IsInventoryKey(key string) bool {
	return strings.HasPrefix(key, inventoryKeyPrefix)
}
