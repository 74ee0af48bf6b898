package entities

const (
	MetadataReservationID = "reservationId"
	MetadataCustomerEmail = "customerEmail"
	MetadataCustomerName  = "customerName"

	EventPaymentSucceeded = "payment_intent.succeeded"
)

type PaymentIntentRequest struct {
	ReservationID string
	Amount        int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	Description   string
}

// PaymentHandle is returned to the browser to complete the payment interactively.
type PaymentHandle struct {
	ClientSecret    string `json:"clientSecret"`
	ReservationID   string `json:"reservationId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentEvent is a verified callback from the payment processor.
type PaymentEvent struct {
	EventID         string
	Type            string
	PaymentIntentID string
	ReservationID   string
	CustomerEmail   string
	CustomerName    string
	Amount          int64
	Currency        string
}
