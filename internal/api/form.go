package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"carrental/internal/entities"
)

const (
	fieldLicenseFront = "licenseFileFront"
	fieldLicenseBack  = "licenseFileBack"
	aliasLicenseFront = "licenseFileRecto"
	aliasLicenseBack  = "licenseFileVerso"

	defaultCurrency = "eur"
)

// ErrBodyTooLarge reports a request body cut off by the size limit.
var ErrBodyTooLarge = errors.New("request body is too large")

// FormError reports a form value that could not be read unambiguously.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Field + " " + e.Message
}

// formValues abstracts over multipart and urlencoded bodies.
type formValues struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

func (f formValues) get(name string) string {
	if v := f.values[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// parseForm reads a multipart or urlencoded body. JSON bodies return ok=false.
func parseForm(r *http.Request, maxMemory int64) (formValues, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return formValues{}, true, bodyReadError(err, &FormError{Field: "body", Message: "is not a valid multipart form"})
		}
		return formValues{values: r.MultipartForm.Value, files: r.MultipartForm.File}, true, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return formValues{}, true, bodyReadError(err, &FormError{Field: "body", Message: "is not a valid form"})
		}
		return formValues{values: r.PostForm}, true, nil
	default:
		return formValues{}, false, nil
	}
}

// bodyReadError tells a body truncated by http.MaxBytesReader apart from a
// malformed one.
func bodyReadError(err, malformed error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxErr.Limit)
	}
	return malformed
}

// jsonSubmission is the JSON shape of a reservation with optional pre-encoded faces.
type jsonSubmission struct {
	entities.Reservation
	LicenseFileFront *entities.Attachment `json:"licenseFileFront,omitempty"`
	LicenseFileBack  *entities.Attachment `json:"licenseFileBack,omitempty"`
	LicenseFileRecto *entities.Attachment `json:"licenseFileRecto,omitempty"`
	LicenseFileVerso *entities.Attachment `json:"licenseFileVerso,omitempty"`
}

// decodeSubmission turns the request body into a typed reservation. Values
// that cannot be read unambiguously are rejected instead of guessed.
func decodeSubmission(r *http.Request, maxMemory int64) (entities.SubmitRequest, error) {
	form, isForm, err := parseForm(r, maxMemory)
	if err != nil {
		return entities.SubmitRequest{}, err
	}
	if !isForm {
		return decodeJSONSubmission(r)
	}

	res, err := reservationFromForm(form)
	if err != nil {
		return entities.SubmitRequest{}, err
	}
	front, err := readAttachment(form, fieldLicenseFront, aliasLicenseFront)
	if err != nil {
		return entities.SubmitRequest{}, err
	}
	back, err := readAttachment(form, fieldLicenseBack, aliasLicenseBack)
	if err != nil {
		return entities.SubmitRequest{}, err
	}
	return entities.SubmitRequest{Reservation: res, LicenseFront: front, LicenseBack: back}, nil
}

func decodeJSONSubmission(r *http.Request) (entities.SubmitRequest, error) {
	var body jsonSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return entities.SubmitRequest{}, &FormError{Field: typeErr.Field, Message: "has the wrong type"}
		}
		return entities.SubmitRequest{}, bodyReadError(err, &FormError{Field: "body", Message: "is not valid JSON"})
	}

	res := body.Reservation
	if res.Currency == "" {
		res.Currency = defaultCurrency
	}
	res.Currency = strings.ToLower(res.Currency)

	front := firstAttachment(body.LicenseFileFront, body.LicenseFileRecto)
	back := firstAttachment(body.LicenseFileBack, body.LicenseFileVerso)
	return entities.SubmitRequest{Reservation: res, LicenseFront: front, LicenseBack: back}, nil
}

func reservationFromForm(form formValues) (entities.Reservation, error) {
	res := entities.Reservation{
		FirstName:               form.get("firstName"),
		LastName:                form.get("lastName"),
		Email:                   form.get("email"),
		Phone:                   form.get("phone"),
		DateOfBirth:             form.get("dateOfBirth"),
		Address:                 form.get("address"),
		City:                    form.get("city"),
		PostalCode:              form.get("postalCode"),
		Country:                 form.get("country"),
		LicenseNumber:           form.get("licenseNumber"),
		LicenseIssueDate:        form.get("licenseIssueDate"),
		LicenseExpiryDate:       form.get("licenseExpiryDate"),
		LicenseIssuingAuthority: form.get("licenseIssuingAuthority"),
		ViolationsDetails:       form.get("violationsDetails"),
		StartDate:               form.get("startDate"),
		EndDate:                 form.get("endDate"),
		StartTime:               form.get("startTime"),
		EndTime:                 form.get("endTime"),
		VehicleType:             form.get("vehicleType"),
		SpecialRequests:         form.get("specialRequests"),
		Currency:                strings.ToLower(form.get("currency")),
	}
	if res.Currency == "" {
		res.Currency = defaultCurrency
	}

	var err error
	if res.LicensePoints, err = parseOptionalInt("licensePoints", form.get("licensePoints")); err != nil {
		return res, err
	}
	if res.HasViolations, err = parseFormBool("hasViolations", form.get("hasViolations")); err != nil {
		return res, err
	}
	if res.AcceptsResponsibility, err = parseFormBool("acceptsResponsibility", form.get("acceptsResponsibility")); err != nil {
		return res, err
	}
	if res.Amount, err = parseAmount("amount", form.get("amount")); err != nil {
		return res, err
	}
	return res, nil
}

// parseFormBool accepts "true", "false" and the checkbox value "on". A missing
// value is false.
func parseFormBool(field, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "":
		return false, nil
	case "true", "on":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &FormError{Field: field, Message: "must be true or false"}
	}
}

func parseOptionalInt(field, value string) (*int, error) {
	if value == "" || value == "null" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, &FormError{Field: field, Message: "must be a whole number"}
	}
	return &n, nil
}

// parseAmount reads an amount in minor currency units. A missing amount is
// left at zero for the validator to reject.
func parseAmount(field, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &FormError{Field: field, Message: "must be a whole number of cents"}
	}
	return n, nil
}

func readAttachment(form formValues, names ...string) (*entities.Attachment, error) {
	for _, name := range names {
		headers := form.files[name]
		if len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, &FormError{Field: name, Message: "could not be read"}
		}
		content, err := io.ReadAll(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, &FormError{Field: name, Message: "could not be read"}
		}
		return entities.NewAttachment(fh.Filename, fh.Header.Get("Content-Type"), content), nil
	}
	return nil, nil
}

func firstAttachment(candidates ...*entities.Attachment) *entities.Attachment {
	for _, a := range candidates {
		if !a.Empty() {
			if a.MimeType == "" {
				a.MimeType = entities.DefaultMimeType
			}
			return a
		}
	}
	return nil
}

func claimedIdentityFromForm(form formValues) entities.ClaimedIdentity {
	return entities.ClaimedIdentity{
		FirstName:     form.get("firstName"),
		LastName:      form.get("lastName"),
		LicenseNumber: form.get("licenseNumber"),
		IssueDate:     form.get("licenseIssueDate"),
		ExpiryDate:    form.get("licenseExpiryDate"),
	}
}
