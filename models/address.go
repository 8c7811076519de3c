package models

import "strings"

// ZeroAddress is the null identity. Ownership can never be handed to it.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress trims and lowercases an identity so lookups are case-insensitive
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsZeroAddress reports whether address is empty or the all-zero identity
func IsZeroAddress(address string) bool {
	a := NormalizeAddress(address)
	if a == "" {
		return true
	}
	return strings.Trim(strings.TrimPrefix(a, "0x"), "0") == ""
}
