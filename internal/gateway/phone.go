package gateway

import (
	"fmt"
	"strings"
)

// NormalizePhone reduces a raw phone number to digits and ensures the
// country code prefix. Numbers whose final length is implausible are
// rejected here, before any gateway call.
func NormalizePhone(raw, countryCode string) (string, error) {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()

	if digits == "" {
		return "", fmt.Errorf("phone number %q has no digits", raw)
	}

	// National numbers (8 to 11 digits) get the country code prefixed;
	// anything longer is assumed to carry one already.
	if len(digits) >= 8 && len(digits) <= 11 && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}

	if len(digits) < 10 || len(digits) > 15 {
		return "", fmt.Errorf("phone number %q has invalid length %d", raw, len(digits))
	}

	return digits, nil
}
