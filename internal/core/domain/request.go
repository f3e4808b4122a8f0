package domain

import "time"

// TimestampLayout matches the millisecond UTC form used for generated request timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Request is the log record of a fulfilled blood request. It is never rewritten.
type Request struct {
	RequestID string    `json:"requestID"`
	BloodType BloodType `json:"bloodType"`
	Quantity  int       `json:"quantity"`
	Timestamp string    `json:"timestamp"`
}

func NewRequest(id string, bt BloodType, quantity int, timestamp string, now time.Time) Request {
	if timestamp == "" {
		timestamp = now.UTC().Format(TimestampLayout)
	}
	return Request{
		RequestID: id,
		BloodType: bt,
		Quantity:  quantity,
		Timestamp: timestamp,
	}
}
