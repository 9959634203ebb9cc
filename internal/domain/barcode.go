package domain

import (
	"regexp"
	"strings"
)

const (
	MinBarcodeLength = 8
	MaxBarcodeLength = 14
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// ValidateBarcode trims surrounding whitespace and checks the EAN/UPC shape.
// It never touches the network.
func ValidateBarcode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !barcodePattern.MatchString(code) {
		return "", &ProviderError{
			Source:  "validation",
			Kind:    ErrValidation,
			Message: "barcode must be numeric with 8 to 14 digits",
		}
	}
	return code, nil
}
