package domain

type DonationDetail struct {
	Date      string    `json:"date"`
	Quantity  int       `json:"quantity"`
	BloodType BloodType `json:"bloodType,omitempty"`
}

type Donor struct {
	DonorID          string           `json:"donorID"`
	DonorName        string           `json:"donorName"`
	BloodType        BloodType        `json:"bloodType"`
	Age              int              `json:"age"`
	PhoneNumber      string           `json:"phoneNumber"`
	LastDonationDate *string          `json:"lastDonationDate"`
	DonationHistory  []DonationDetail `json:"donationHistory"`
}

// NewDonor builds a freshly registered donor with no donations on record.
func NewDonor(id, name string, bt BloodType, age int, phone string) Donor {
	return Donor{
		DonorID:         id,
		DonorName:       name,
		BloodType:       bt,
		Age:             age,
		PhoneNumber:     phone,
		DonationHistory: []DonationDetail{},
	}
}

func (d *Donor) RecordDonation(date string) {
	d.LastDonationDate = &date
}

func (d *Donor) AppendHistory(detail DonationDetail) {
	d.DonationHistory = append(d.DonationHistory, detail)
}

// History never returns nil so that it always encodes as a JSON array.
func (d Donor) History() []DonationDetail {
	if d.DonationHistory == nil {
		return []DonationDetail{}
	}
	return d.DonationHistory
}
