package handler

import "context"

// Invoker runs one named ledger operation. service.BloodBankService implements it.
type Invoker interface {
	Invoke(ctx context.Context, function string, args []string) ([]byte, error)
}
