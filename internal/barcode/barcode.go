// Package barcode turns scanned, typed or parsed codes into the canonical
// digit string every lookup compares against.
package barcode

import "strings"

// Normalize returns raw with every character that is not an ASCII digit
// removed. An empty result means no barcode was present.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}
