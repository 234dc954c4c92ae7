package models

import "strings"

// MaskSecret renders a stored credential for display. Short secrets are
// fully starred so their length leaks nothing useful; longer ones keep the
// first and last four characters so users can tell keys apart.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
