package utils

import (
	"fmt"
	"strings"
)

// NormalizePhoneE164 turns a French national number or an international
// number written with separators into E.164.
func NormalizePhoneE164(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(cleaned, "+"):
	case strings.HasPrefix(cleaned, "00"):
		cleaned = "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		cleaned = "+33" + cleaned[1:]
	default:
		return "", fmt.Errorf("phone number %q is not in E.164 format", phone)
	}
	if len(cleaned) < 8 || len(cleaned) > 16 || !isDigits(cleaned[1:]) {
		return "", fmt.Errorf("phone number %q is not in E.164 format", phone)
	}
	return cleaned, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
