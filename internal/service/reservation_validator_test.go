package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/entities"
)

func TestReservationValidator_Validate(t *testing.T) {
	v := NewReservationValidator()

	t.Run("complete reservation", func(t *testing.T) {
		assert.NoError(t, v.Validate(validReservation()))
	})

	tests := []struct {
		name   string
		mutate func(*entities.Reservation)
		field  string
		msg    string
	}{
		{"consent withheld", func(r *entities.Reservation) { r.AcceptsResponsibility = false }, "acceptsResponsibility", "you must accept responsibility for the vehicle"},
		{"missing first name", func(r *entities.Reservation) { r.FirstName = "" }, "firstName", "is required"},
		{"bad email", func(r *entities.Reservation) { r.Email = "not-an-email" }, "email", "must be a valid email address"},
		{"short postal code", func(r *entities.Reservation) { r.PostalCode = "750" }, "postalCode", "must be exactly 5 characters"},
		{"malformed date", func(r *entities.Reservation) { r.StartDate = "10/07/2024" }, "startDate", "must match the format 2006-01-02"},
		{"malformed time", func(r *entities.Reservation) { r.EndTime = "6pm" }, "endTime", "must match the format 15:04"},
		{"too many points", func(r *entities.Reservation) { p := 15; r.LicensePoints = &p }, "licensePoints", "at most 12"},
		{"zero amount", func(r *entities.Reservation) { r.Amount = 0 }, "amount", "must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validReservation()
			tt.mutate(&res)

			err := v.Validate(res)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Details()[tt.field], tt.msg)
		})
	}

	t.Run("reports every problem at once", func(t *testing.T) {
		res := validReservation()
		res.FirstName = ""
		res.AcceptsResponsibility = false

		var verr *ValidationError
		require.ErrorAs(t, v.Validate(res), &verr)
		assert.Len(t, verr.Fields, 2)
	})
}

func TestCheckAmountBounds(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"typical two-day price", 11000, false},
		{"lower bound", 5000, false},
		{"upper bound for two days", 100000, false},
		{"below minimum", 4999, true},
		{"above two-day maximum", 100001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validReservation()
			res.Amount = tt.amount
			err := CheckAmountBounds(res)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAmountOutOfBounds)
				return
			}
			assert.NoError(t, err)
		})
	}
}
