package ports

import "context"

const (
	UserRegistered Topic = "User Registered"
	PaymentSent    Topic = "Payment Sent"
)

type Topic string

type Alerts interface {
	Publish(ctx context.Context, topic Topic, message interface{}) error
}

type UserRegisteredAlert struct {
	Handle  string
	Address string
}

type PaymentSentAlert struct {
	FromHandle  string
	FromAddress string
	ToHandle    string
	ToAddress   string
	Amount      string
	Denom       string
	// Escrowed is true if the recipient was not registered yet.
	Escrowed bool
}
