package entities

// LicenseVerdict is the vision model's advisory opinion on an uploaded license.
type LicenseVerdict struct {
	IsValid        bool               `json:"isValid"`
	IsLicense      bool               `json:"isLicense"`
	IsReadable     bool               `json:"isReadable"`
	IsExpired      bool               `json:"isExpired"`
	IsAuthentic    bool               `json:"isAuthentic"`
	FacesMatch     bool               `json:"facesMatch"`
	ExtractedInfo  *ExtractedLicense  `json:"extractedInfo,omitempty"`
	Comparison     *LicenseComparison `json:"comparison,omitempty"`
	Issues         []string           `json:"issues"`
	Recommendation string             `json:"recommendation"`
}

type ExtractedLicense struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	FullName      *string `json:"fullName"`
	LicenseNumber *string `json:"licenseNumber"`
	IssueDate     *string `json:"issueDate"`
	ExpiryDate    *string `json:"expiryDate"`
	Country       *string `json:"country"`
}

type LicenseComparison struct {
	NameMatches             bool    `json:"nameMatches"`
	LicenseNumberMatches    bool    `json:"licenseNumberMatches"`
	IssueDateMatches        bool    `json:"issueDateMatches"`
	ExpiryDateMatches       bool    `json:"expiryDateMatches"`
	NameDifference          *string `json:"nameDifference"`
	LicenseNumberDifference *string `json:"licenseNumberDifference"`
	IssueDateDifference     *string `json:"issueDateDifference"`
	ExpiryDateDifference    *string `json:"expiryDateDifference"`
}
