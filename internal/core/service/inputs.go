package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/blood-bank/internal/core/domain"
)

const (
	msgRegistrationFields = "All fields (donorID, donorName, bloodType, age, phoneNumber) are required."
	msgDonationFields     = "All fields (donorID, bloodType, quantity, donationDate) are required."
	msgInventoryFields    = "Valid bloodType and quantity are required."
	msgInvalidQuantity    = "Invalid or negative quantity provided."
	msgDonationDetails    = "Donation details must include date and quantity."
)

// dateLayouts are the ISO-8601 forms accepted for donation dates and request timestamps.
var dateLayouts = []string{
	"2006-01-02",
	domain.TimestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
}

func validDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func checkRecordID(field, id string) error {
	if id == "" {
		return domain.NewValidationError(fmt.Sprintf("%s is required.", field))
	}
	if domain.IsInventoryKey(id) {
		return domain.NewValidationError(fmt.Sprintf("%s %q uses the reserved inventory_ prefix.", field, id))
	}
	return nil
}

func checkBloodType(bt domain.BloodType) error {
	_, err := domain.ParseBloodType(string(bt))
	return err
}

type RegistrationInput struct {
	DonorID     string
	DonorName   string
	BloodType   domain.BloodType
	Age         int
	PhoneNumber string
	// Overwrite replaces an existing donor instead of failing.
	Overwrite bool
}

func (in RegistrationInput) validate() error {
	if in.DonorID == "" || in.DonorName == "" || in.BloodType == "" || in.PhoneNumber == "" {
		return domain.NewValidationError(msgRegistrationFields)
	}
	if err := checkRecordID("donorID", in.DonorID); err != nil {
		return err
	}
	if in.Age < 0 {
		return domain.NewValidationError(fmt.Sprintf("Invalid age %d: must be a non-negative integer.", in.Age))
	}
	return checkBloodType(in.BloodType)
}

type DonationInput struct {
	DonorID      string
	BloodType    domain.BloodType
	Quantity     int
	DonationDate string
}

func (in DonationInput) validate() error {
	if in.DonorID == "" || in.BloodType == "" || in.DonationDate == "" {
		return domain.NewValidationError(msgDonationFields)
	}
	if in.Quantity <= 0 {
		return domain.NewValidationError(msgInvalidQuantity)
	}
	if err := checkBloodType(in.BloodType); err != nil {
		return err
	}
	if !validDate(in.DonationDate) {
		return domain.NewValidationError(fmt.Sprintf("Invalid donation date %q: expected an ISO-8601 date.", in.DonationDate))
	}
	return nil
}

type RequestInput struct {
	RequestID string
	BloodType domain.BloodType
	Quantity  int
	// Timestamp is generated at processing time when empty.
	Timestamp string
}

func (in RequestInput) validate() error {
	if in.Quantity <= 0 {
		return domain.NewValidationError(msgInvalidQuantity)
	}
	if err := checkRecordID("requestID", in.RequestID); err != nil {
		return err
	}
	if err := checkBloodType(in.BloodType); err != nil {
		return err
	}
	if in.Timestamp != "" && !validDate(in.Timestamp) {
		return domain.NewValidationError(fmt.Sprintf("Invalid timestamp %q: expected an ISO-8601 timestamp.", in.Timestamp))
	}
	return nil
}

func validateDonationDetail(d domain.DonationDetail) error {
	if d.Date == "" || d.Quantity <= 0 {
		return domain.NewValidationError(msgDonationDetails)
	}
	if !validDate(d.Date) {
		return domain.NewValidationError(fmt.Sprintf("Invalid donation date %q: expected an ISO-8601 date.", d.Date))
	}
	if d.BloodType != "" {
		return checkBloodType(d.BloodType)
	}
	return nil
}

// The parse functions below turn the positional string arguments of an
// invocation into typed inputs. Arity has already been checked by Invoke.

func parseRegistration(args []string) (RegistrationInput, error) {
	for _, a := range args[:5] {
		if a == "" {
			return RegistrationInput{}, domain.NewValidationError(msgRegistrationFields)
		}
	}

	age, err := strconv.Atoi(args[3])
	if err != nil || age < 0 {
		return RegistrationInput{}, domain.NewValidationError(fmt.Sprintf("Invalid age %q: must be a non-negative integer.", args[3]))
	}

	in := RegistrationInput{
		DonorID:     args[0],
		DonorName:   args[1],
		BloodType:   domain.BloodType(args[2]),
		Age:         age,
		PhoneNumber: args[4],
	}
	if len(args) > 5 && args[5] != "" {
		in.Overwrite, err = strconv.ParseBool(args[5])
		if err != nil {
			return RegistrationInput{}, domain.NewValidationError(fmt.Sprintf("Invalid overwrite flag %q: must be true or false.", args[5]))
		}
	}
	return in, nil
}

func parseDonation(args []string) (DonationInput, error) {
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return DonationInput{}, domain.NewValidationError(msgDonationFields)
	}
	return DonationInput{
		DonorID:      args[0],
		BloodType:    domain.BloodType(args[1]),
		Quantity:     quantity,
		DonationDate: args[3],
	}, nil
}

func parseInventoryUpdate(args []string) (domain.BloodType, int, error) {
	delta, err := strconv.Atoi(args[1])
	if args[0] == "" || err != nil {
		return "", 0, domain.NewValidationError(msgInventoryFields)
	}
	bt, err := domain.ParseBloodType(args[0])
	if err != nil {
		return "", 0, err
	}
	return bt, delta, nil
}

func parseRequest(args []string) (RequestInput, error) {
	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return RequestInput{}, domain.NewValidationError(msgInvalidQuantity)
	}
	in := RequestInput{
		RequestID: args[0],
		BloodType: domain.BloodType(args[1]),
		Quantity:  quantity,
	}
	if len(args) > 3 {
		in.Timestamp = args[3]
	}
	return in, nil
}

func parseDonationDetail(raw string) (domain.DonationDetail, error) {
	var detail domain.DonationDetail
	if raw == "" {
		return detail, domain.NewValidationError(msgDonationDetails)
	}
	// unknown fields are rejected rather than dropped from the stored history
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&detail); err != nil {
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return detail, domain.NewValidationError(fmt.Sprintf("Unsupported field %s in donation details: expected date, quantity and bloodType.", field))
		}
		return detail, domain.NewValidationError(msgDonationDetails)
	}
	if dec.More() {
		return detail, domain.NewValidationError(msgDonationDetails)
	}
	return detail, validateDonationDetail(detail)
}
