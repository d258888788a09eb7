package utils

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateDocumentType accepts the upload formats the extraction gateway reads: PDF and images
func ValidateDocumentType(mimeType string) error {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fmt.Errorf("invalid media type %q: %w", mimeType, err)
	}
	if base == "application/pdf" || strings.HasPrefix(base, "image/") {
		return nil
	}
	return fmt.Errorf("unsupported document type: %s", base)
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
