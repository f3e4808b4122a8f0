package domain

type Inventory struct {
	BloodType BloodType `json:"bloodType"`
	Quantity  int       `json:"quantity"`
}

func NewInventory(bt BloodType) Inventory {
	return Inventory{BloodType: bt, Quantity: InitialStock}
}

// Apply returns the inventory after adding delta, refusing to go below zero.
func (inv Inventory) Apply(delta int) (Inventory, error) {
	next := inv.Quantity + delta
	if next < 0 {
		return inv, NewConflictError("Quantity cannot be negative.")
	}
	inv.Quantity = next
	return inv, nil
}
