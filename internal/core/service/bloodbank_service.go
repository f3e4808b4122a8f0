package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/google/uuid"

	"github.com/rl1809/blood-bank/internal/core/domain"
	"github.com/rl1809/blood-bank/internal/port"
)

// BloodBankService runs every operation as a single ledger transaction: it
// reads the keys it needs, validates against the current state and writes
// the new state back. A failed operation leaves the ledger untouched.
type BloodBankService struct {
	store   port.LedgerStore
	metrics port.MetricsRecorder
	log     *logger.L
	now     func() time.Time
}

// NewBloodBankService requires logger.Initialise to have been called. metrics may be nil.
func NewBloodBankService(store port.LedgerStore, metrics port.MetricsRecorder) *BloodBankService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BloodBankService{
		store:   store,
		metrics: metrics,
		log:     logger.New("bloodbank"),
		now:     time.Now,
	}
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, string, time.Duration) {}

type invocation struct {
	svc      *BloodBankService
	ctx      context.Context
	function string
	txID     string
	start    time.Time
}

func (s *BloodBankService) begin(ctx context.Context, function string) *invocation {
	return &invocation{
		svc:      s,
		ctx:      ctx,
		function: function,
		txID:     uuid.NewString(),
		start:    time.Now(),
	}
}

// end classifies the result, records it and logs it. Errors that did not come
// from the operation itself (commit failures, exhausted retries, cancellation)
// become storage errors.
func (inv *invocation) end(errp *error) {
	outcome := "success"
	if err := *errp; err != nil {
		var domainErr *domain.Error
		if !errors.As(err, &domainErr) {
			err = domain.NewStorageError("", "commit", fmt.Sprintf("Failed to commit %s", inv.function), err)
			*errp = err
		}
		outcome = string(domain.KindOf(err))
		inv.svc.logRejected(inv.function, inv.txID, err)
	} else {
		inv.svc.log.Debugf("%s committed [tx %s]", inv.function, inv.txID)
	}
	inv.svc.metrics.Observe(inv.ctx, inv.function, outcome, time.Since(inv.start))
}

func (s *BloodBankService) logRejected(function, txID string, err error) {
	if domain.KindOf(err) == domain.KindStorage {
		s.log.Errorf("%s failed [tx %s]: %s", function, txID, err)
		return
	}
	s.log.Warnf("%s rejected [tx %s]: %s", function, txID, err)
}

// InitBloodInventory seeds every blood type with the initial stock, resetting
// any quantity already on the ledger.
func (s *BloodBankService) InitBloodInventory(ctx context.Context) (err error) {
	inv := s.begin(ctx, "initBloodInventory")
	defer inv.end(&err)

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		for _, bt := range domain.BloodTypes {
			if err := saveInventory(ctx, tx, domain.NewInventory(bt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		s.log.Infof("blood inventory initialized with %d units per type", domain.InitialStock)
	}
	return err
}

func (s *BloodBankService) RegisterDonor(ctx context.Context, in RegistrationInput) (donor domain.Donor, err error) {
	inv := s.begin(ctx, "registerDonor")
	defer inv.end(&err)

	if err = in.validate(); err != nil {
		return donor, err
	}

	donor = domain.NewDonor(in.DonorID, in.DonorName, in.BloodType, in.Age, in.PhoneNumber)
	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		var existing domain.Donor
		found, err := getRecord(ctx, tx, in.DonorID, &existing)
		if err != nil {
			return err
		}
		if found && existing.DonorID != in.DonorID {
			return idInUse(in.DonorID)
		}
		if found && !in.Overwrite {
			return domain.NewConflictError(fmt.Sprintf("Donor with ID %s already exists.", in.DonorID))
		}
		return saveDonor(ctx, tx, in.DonorID, donor)
	})
	if err != nil {
		return domain.Donor{}, err
	}

	s.log.Infof("donor %s registered (blood type %s, overwrite %t)", donor.DonorID, donor.BloodType, in.Overwrite)
	return donor, nil
}

// Donate credits the donated quantity to the inventory and stamps the donor's
// last donation date. It does not append to the donation history.
func (s *BloodBankService) Donate(ctx context.Context, in DonationInput) (updated domain.Inventory, err error) {
	inv := s.begin(ctx, "donate")
	defer inv.end(&err)

	if err = in.validate(); err != nil {
		return updated, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		stock, err := loadInventory(ctx, tx, in.BloodType, noInventory(in.BloodType))
		if err != nil {
			return err
		}
		donor, err := loadDonor(ctx, tx, in.DonorID)
		if err != nil {
			return err
		}

		stock, err = stock.Apply(in.Quantity)
		if err != nil {
			return err
		}
		donor.RecordDonation(in.DonationDate)

		if err := saveInventory(ctx, tx, stock); err != nil {
			return err
		}
		if err := saveDonor(ctx, tx, in.DonorID, donor); err != nil {
			return err
		}
		updated = stock
		return nil
	})
	if err != nil {
		return domain.Inventory{}, err
	}

	s.log.Infof("donor %s donated %d units of %s, inventory now %d", in.DonorID, in.Quantity, in.BloodType, updated.Quantity)
	return updated, nil
}

// UpdateBloodInventory adds delta (which may be negative) to the stock of bt.
func (s *BloodBankService) UpdateBloodInventory(ctx context.Context, bt domain.BloodType, delta int) (updated domain.Inventory, err error) {
	inv := s.begin(ctx, "updateBloodInventory")
	defer inv.end(&err)

	if err = checkBloodType(bt); err != nil {
		return updated, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		stock, err := loadInventory(ctx, tx, bt, fmt.Sprintf("Blood type %s does not exist in the inventory.", bt))
		if err != nil {
			return err
		}
		stock, err = stock.Apply(delta)
		if err != nil {
			return err
		}
		if err := saveInventory(ctx, tx, stock); err != nil {
			return err
		}
		updated = stock
		return nil
	})
	if err != nil {
		return domain.Inventory{}, err
	}

	s.log.Infof("inventory %s adjusted by %d, now %d", bt, delta, updated.Quantity)
	return updated, nil
}

type RequestResult struct {
	Request          domain.Request   `json:"request"`
	UpdatedInventory domain.Inventory `json:"updatedInventory"`
}

// RequestBlood debits the inventory and records the request. Request ids are
// immutable: a second request under the same id is rejected.
func (s *BloodBankService) RequestBlood(ctx context.Context, in RequestInput) (result RequestResult, err error) {
	inv := s.begin(ctx, "requestBlood")
	defer inv.end(&err)

	if err = in.validate(); err != nil {
		return result, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		stock, err := loadInventory(ctx, tx, in.BloodType, noInventory(in.BloodType))
		if err != nil {
			return err
		}

		existing, found, err := loadRequest(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if found && existing.RequestID != in.RequestID {
			return idInUse(in.RequestID)
		}
		if found {
			return domain.NewConflictError(fmt.Sprintf("Request with ID %s already exists.", in.RequestID))
		}

		s.log.Debugf("inventory before update: %+v", stock)
		if stock.Quantity < in.Quantity {
			return domain.NewConflictError(fmt.Sprintf("Insufficient blood of type %s. Available: %d", in.BloodType, stock.Quantity))
		}
		stock, err = stock.Apply(-in.Quantity)
		if err != nil {
			return err
		}
		if err := saveInventory(ctx, tx, stock); err != nil {
			return err
		}
		s.log.Debugf("inventory after update: %+v", stock)

		request := domain.NewRequest(in.RequestID, in.BloodType, in.Quantity, in.Timestamp, s.now())
		if err := putRecord(ctx, tx, request.RequestID, request, fmt.Sprintf("Failed to save request %s", request.RequestID)); err != nil {
			return err
		}

		result = RequestResult{Request: request, UpdatedInventory: stock}
		return nil
	})
	if err != nil {
		return RequestResult{}, err
	}

	s.log.Infof("request %s served %d units of %s, inventory now %d", in.RequestID, in.Quantity, in.BloodType, result.UpdatedInventory.Quantity)
	return result, nil
}

func (s *BloodBankService) GetDonor(ctx context.Context, donorID string) (donor domain.Donor, err error) {
	inv := s.begin(ctx, "getDonor")
	defer inv.end(&err)

	if err = checkRecordID("donorID", donorID); err != nil {
		return donor, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		current, err := loadDonor(ctx, tx, donorID)
		donor = current
		return err
	})
	return donor, err
}

func (s *BloodBankService) GetBloodInventory(ctx context.Context, bt domain.BloodType) (stock domain.Inventory, err error) {
	inv := s.begin(ctx, "getBloodInventory")
	defer inv.end(&err)

	if err = checkBloodType(bt); err != nil {
		return stock, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		current, err := loadInventory(ctx, tx, bt, noInventory(bt))
		stock = current
		return err
	})
	return stock, err
}

// GetDonationHistory returns the donor's history, empty rather than nil when
// nothing has been recorded.
func (s *BloodBankService) GetDonationHistory(ctx context.Context, donorID string) (history []domain.DonationDetail, err error) {
	inv := s.begin(ctx, "getDonationHistory")
	defer inv.end(&err)

	if err = checkRecordID("donorID", donorID); err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		donor, err := loadDonor(ctx, tx, donorID)
		if err != nil {
			return err
		}
		history = donor.History()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (s *BloodBankService) GetRequest(ctx context.Context, requestID string) (request domain.Request, err error) {
	inv := s.begin(ctx, "getRequest")
	defer inv.end(&err)

	if err = checkRecordID("requestID", requestID); err != nil {
		return request, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		current, found, err := loadRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !found || current.RequestID != requestID {
			return domain.NewNotFoundError(requestID, fmt.Sprintf("Request with ID %s does not exist.", requestID))
		}
		request = current
		return nil
	})
	return request, err
}

// AddDonationToHistory appends detail to the donor's donation history and
// returns the updated donor.
func (s *BloodBankService) AddDonationToHistory(ctx context.Context, donorID string, detail domain.DonationDetail) (donor domain.Donor, err error) {
	inv := s.begin(ctx, "addDonationToHistory")
	defer inv.end(&err)

	if err = checkRecordID("donorID", donorID); err != nil {
		return donor, err
	}
	if err = validateDonationDetail(detail); err != nil {
		return donor, err
	}

	err = s.store.RunInTransaction(ctx, func(tx port.Ledger) error {
		current, err := loadDonor(ctx, tx, donorID)
		if err != nil {
			return err
		}
		current.AppendHistory(detail)
		if err := saveDonor(ctx, tx, donorID, current); err != nil {
			return err
		}
		donor = current
		return nil
	})
	if err != nil {
		return domain.Donor{}, err
	}

	s.log.Infof("donation of %d units on %s added to history of donor %s", detail.Quantity, detail.Date, donorID)
	return donor, nil
}
