package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeCEP removes the "-" separator and surrounding whitespace from a CEP.
// Nothing else is validated.
func NormalizeCEP(cep string) string {
	return strings.ReplaceAll(strings.TrimSpace(cep), "-", "")
}

// CleanCEP removes all non-numeric characters from CEP
func CleanCEP(cep string) string {
	return nonDigit.ReplaceAllString(cep, "")
}

// FormatCEP formats CEP as XXXXX-XXX
func FormatCEP(cep string) string {
	cleaned := CleanCEP(cep)
	if len(cleaned) != 8 {
		return cep // Return original if invalid length
	}

	return cleaned[:5] + "-" + cleaned[5:]
}

// IsValidCEP reports whether cep has exactly 8 digits once the separator is removed
func IsValidCEP(cep string) bool {
	normalized := NormalizeCEP(cep)
	if len(normalized) != 8 {
		return false
	}
	return IsDigits(normalized)
}

// IsDigits reports whether s is non-empty and made only of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// UniqueCEPs normalizes the given CEPs, dropping blanks and repeated values
// while keeping the first occurrence order.
func UniqueCEPs(ceps []string) []string {
	seen := make(map[string]struct{}, len(ceps))
	unique := make([]string, 0, len(ceps))

	for _, cep := range ceps {
		normalized := NormalizeCEP(cep)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, normalized)
	}

	return unique
}
