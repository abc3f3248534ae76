package booking

import "fmt"

// PaymentMethod is the closed set of accepted payment channels.
type PaymentMethod string

const (
	MethodMpesa  PaymentMethod = "mpesa"
	MethodCard   PaymentMethod = "card"
	MethodPaypal PaymentMethod = "paypal"
)

// IsValid returns true if the payment method is recognized.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodMpesa, MethodCard, MethodPaypal:
		return true
	}
	return false
}

// String returns the string representation of the method.
func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod converts a string to a PaymentMethod, returning an error if invalid.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(s)
	if !method.IsValid() {
		return "", fmt.Errorf("invalid payment method: %s", s)
	}
	return method, nil
}
