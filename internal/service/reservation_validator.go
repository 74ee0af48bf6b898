package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"carrental/internal/entities"
	"carrental/internal/utils"
)

var ErrAmountOutOfBounds = errors.New("amount is outside the allowed range for the booking window")

// FieldError names one rejected field in the renter's vocabulary.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid reservation: " + strings.Join(parts, "; ")
}

// Details flattens the field errors for the JSON error body.
func (e *ValidationError) Details() map[string]any {
	details := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		details[f.Field] = f.Message
	}
	return details
}

type ReservationValidator struct {
	validate *validator.Validate
}

func NewReservationValidator() *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ReservationValidator{validate: v}
}

// Validate checks the struct tags of the reservation and that the renter
// accepted responsibility. All problems are reported together.
func (v *ReservationValidator) Validate(res entities.Reservation) error {
	var fields []FieldError

	if err := v.validate.Struct(res); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate reservation: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}

	if !res.AcceptsResponsibility {
		fields = append(fields, FieldError{
			Field:   "acceptsResponsibility",
			Message: "you must accept responsibility for the vehicle",
		})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CheckAmountBounds rejects amounts the price estimator could never have
// produced for the booking window.
func CheckAmountBounds(res entities.Reservation) error {
	start, err := utils.ParseDate(res.StartDate)
	if err != nil {
		return ErrInvalidDates
	}
	end, err := utils.ParseDate(res.EndDate)
	if err != nil {
		return ErrInvalidDates
	}

	days := RentalDays(start, end)
	lower := int64(MinPrice * 100)
	upper := int64(MaxPricePerDay*100) * int64(days)
	if res.Amount < lower || res.Amount > upper {
		return fmt.Errorf("%w: %d not in [%d, %d] for %d day(s)", ErrAmountOutOfBounds, res.Amount, lower, upper, days)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "alpha":
		return "must contain only letters"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match the format %s", fe.Param())
	default:
		return "is invalid"
	}
}
