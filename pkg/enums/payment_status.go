package enums

import "fmt"

// PaymentStatus mirrors how much of an order's amount has been collected.
type PaymentStatus string

const (
	PaymentStatusReceived    PaymentStatus = "received"
	PaymentStatusNotReceived PaymentStatus = "not_received"
	PaymentStatusPartial     PaymentStatus = "partial"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusReceived,
	PaymentStatusNotReceived,
	PaymentStatusPartial,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
