package entities

const (
	PayloadConfirmation = "reservation_confirmation"
	PayloadContract     = "contract_generation"
)

type ConfirmationPayload struct {
	Type            string      `json:"type"`
	ReservationID   string      `json:"reservationId"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerName    string      `json:"customerName"`
	ReservationData Reservation `json:"reservationData"`
	Timestamp       string      `json:"timestamp"`
}

type ContractPayload struct {
	Type                 string      `json:"type"`
	ReservationID        string      `json:"reservationId"`
	CustomerEmail        string      `json:"customerEmail"`
	CustomerName         string      `json:"customerName"`
	ReservationData      Reservation `json:"reservationData"`
	ContractHTML         string      `json:"contractHTML"`
	LicenseFileFront     string      `json:"licenseFileFrontBase64,omitempty"`
	LicenseFileFrontName string      `json:"licenseFileFrontName,omitempty"`
	LicenseFileFrontMime string      `json:"licenseFileFrontMimeType,omitempty"`
	LicenseFileBack      string      `json:"licenseFileBackBase64,omitempty"`
	LicenseFileBackName  string      `json:"licenseFileBackName,omitempty"`
	LicenseFileBackMime  string      `json:"licenseFileBackMimeType,omitempty"`
	Timestamp            string      `json:"timestamp"`
}
