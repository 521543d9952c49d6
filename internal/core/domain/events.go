package domain

type EventType string

const (
	EventTypeRegistration EventType = "registration"
	EventTypeSendPayment  EventType = "send-payment"
)

// Attribute is a key/value pair attached to a state transition or an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Event interface {
	GetType() EventType
	Attributes() []Attribute
}

type RegistrationEvent struct {
	Handle  string
	Address string
}

func (e RegistrationEvent) GetType() EventType {
	return EventTypeRegistration
}

func (e RegistrationEvent) Attributes() []Attribute {
	return []Attribute{
		{"tg-handle", e.Handle},
		{"address", e.Address},
	}
}

type SendPaymentEvent struct {
	FromHandle  string
	ToHandle    string
	FromAddress string
	ToAddress   string
	Amount      Amount
	Denom       string
}

func (e SendPaymentEvent) GetType() EventType {
	return EventTypeSendPayment
}

func (e SendPaymentEvent) Attributes() []Attribute {
	return []Attribute{
		{"from-tg-handle", e.FromHandle},
		{"to-tg-handle", e.ToHandle},
		{"from-address", e.FromAddress},
		{"to-address", e.ToAddress},
		{"amount", e.Amount.String()},
		{"denom", e.Denom},
	}
}

// ParseEvent rebuilds a typed event from its type and attributes. It returns false for unknown
// types or missing attributes.
func ParseEvent(eventType EventType, attrs []Attribute) (Event, bool) {
	m := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		m[attr.Key] = attr.Value
	}
	get := func(keys ...string) ([]string, bool) {
		values := make([]string, 0, len(keys))
		for _, k := range keys {
			v, ok := m[k]
			if !ok {
				return nil, false
			}
			values = append(values, v)
		}
		return values, true
	}

	switch eventType {
	case EventTypeRegistration:
		v, ok := get("tg-handle", "address")
		if !ok {
			return nil, false
		}
		return RegistrationEvent{Handle: v[0], Address: v[1]}, true
	case EventTypeSendPayment:
		v, ok := get("from-tg-handle", "to-tg-handle", "from-address", "to-address", "amount", "denom")
		if !ok {
			return nil, false
		}
		amount, err := ParseAmount(v[4])
		if err != nil {
			return nil, false
		}
		return SendPaymentEvent{
			FromHandle:  v[0],
			ToHandle:    v[1],
			FromAddress: v[2],
			ToAddress:   v[3],
			Amount:      amount,
			Denom:       v[5],
		}, true
	default:
		return nil, false
	}
}
