// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// CleanPhone strips the separators people paste in with phone numbers.
func CleanPhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// ValidatePhone checks if a phone number is in a valid international format:
// optional + prefix followed by 7-15 digits.
func ValidatePhone(phone string) bool {
	return phoneRe.MatchString(CleanPhone(phone))
}
