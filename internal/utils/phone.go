package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

const DefaultPhoneRegion = "IN"

// NormalizeContact formats a customer number as E.164 when it parses as a valid
// number for the region. Anything else is returned trimmed, as typed.
func NormalizeContact(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
