package entities

import (
	"encoding/base64"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04"
	DefaultMimeType = "image/jpeg"
)

// Reservation is the renter's form once it has been decoded into typed fields.
type Reservation struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string `json:"lastName" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,min=10,max=20"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address" validate:"required,min=5,max=200"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	PostalCode  string `json:"postalCode" validate:"required,len=5,numeric"`
	Country     string `json:"country" validate:"required,min=2,max=100"`

	LicenseNumber           string `json:"licenseNumber" validate:"required,min=8,max=30"`
	LicenseIssueDate        string `json:"licenseIssueDate" validate:"required,datetime=2006-01-02"`
	LicenseExpiryDate       string `json:"licenseExpiryDate" validate:"required,datetime=2006-01-02"`
	LicenseIssuingAuthority string `json:"licenseIssuingAuthority" validate:"required,min=2,max=100"`

	// Nil for foreign licenses that carry no points balance.
	LicensePoints *int `json:"licensePoints,omitempty" validate:"omitempty,min=0,max=12"`

	HasViolations     bool   `json:"hasViolations"`
	ViolationsDetails string `json:"violationsDetails,omitempty" validate:"max=2000"`

	StartDate       string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"endDate" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime         string `json:"endTime" validate:"required,datetime=15:04"`
	VehicleType     string `json:"vehicleType,omitempty" validate:"max=100"`
	SpecialRequests string `json:"specialRequests,omitempty" validate:"max=2000"`

	// Amount is expressed in minor currency units (cents).
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"required,len=3,alpha"`

	AcceptsResponsibility bool `json:"acceptsResponsibility"`
}

func (r Reservation) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Attachment is an uploaded license face, base64-encoded once at ingestion.
type Attachment struct {
	Name     string `json:"name"`
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

func NewAttachment(name, mimeType string, content []byte) *Attachment {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &Attachment{
		Name:     name,
		Base64:   base64.StdEncoding.EncodeToString(content),
		MimeType: mimeType,
	}
}

func (a *Attachment) Empty() bool {
	return a == nil || a.Base64 == ""
}

func (a *Attachment) DataURL() string {
	return "data:" + a.MimeType + ";base64," + a.Base64
}

type ReservationStatus string

const (
	StatusSubmitted       ReservationStatus = "submitted"
	StatusAwaitingPayment ReservationStatus = "awaiting_payment"
)

// StoredReservation is what the reservation store holds between submission and notification.
type StoredReservation struct {
	ID              string            `json:"id"`
	Status          ReservationStatus `json:"status"`
	Reservation     Reservation       `json:"reservation"`
	LicenseFront    *Attachment       `json:"licenseFront,omitempty"`
	LicenseBack     *Attachment       `json:"licenseBack,omitempty"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}
