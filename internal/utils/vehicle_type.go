package utils

import (
	"strings"
	"time"
)

const DefaultVehicleType = "standard"

// NormalizeVehicleType lowercases the requested vehicle label. An empty label
// means the renter has no preference.
func NormalizeVehicleType(vehicleType string) string {
	name := strings.ToLower(strings.TrimSpace(vehicleType))
	if name == "" {
		return DefaultVehicleType
	}
	return name
}

// ParseDate parses a YYYY-MM-DD form value in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

// ParisLocation returns Europe/Paris, or a fixed CET offset when tzdata is missing.
func ParisLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.FixedZone("CET", 1*60*60)
	}
	return loc
}
