package entities

// SubmitRequest carries a decoded reservation form and its optional license faces.
type SubmitRequest struct {
	Reservation  Reservation
	LicenseFront *Attachment
	LicenseBack  *Attachment
}

// QuoteRequest is the body of a price-quote request.
type QuoteRequest struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
}

// ClaimedIdentity is what the renter says is printed on the license.
type ClaimedIdentity struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	LicenseNumber string `json:"licenseNumber"`
	IssueDate     string `json:"licenseIssueDate"`
	ExpiryDate    string `json:"licenseExpiryDate"`
}

func (c ClaimedIdentity) Provided() bool {
	return c.FirstName != "" || c.LastName != "" || c.LicenseNumber != "" || c.IssueDate != "" || c.ExpiryDate != ""
}
