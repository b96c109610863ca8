package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ericlunden/foodlab-core/internal/domain/cache"
)

// Input validation and sanitization utilities

var keyPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidateKey checks the cache key format (hex-encoded SHA-256)
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key format (expected 64 hex characters)")
	}
	return nil
}

// ValidateInputMethod checks the input method name
func ValidateInputMethod(method string) error {
	allowed := map[string]bool{
		"camera":  true,
		"text":    true,
		"barcode": true,
		"voice":   true,
	}
	if !allowed[strings.ToLower(method)] {
		return fmt.Errorf("invalid input method: %s (allowed: camera, text, barcode, voice)", method)
	}
	return nil
}

// ValidateScanType checks the scan type tag
func ValidateScanType(scanType string) error {
	if scanType == "" {
		return nil // Optional field
	}
	allowed := map[string]bool{
		"food":    true,
		"recipe":  true,
		"product": true,
	}
	if !allowed[strings.ToLower(scanType)] {
		return fmt.Errorf("invalid scan type: %s (allowed: food, recipe, product)", scanType)
	}
	return nil
}

// ValidateSort maps a sort query parameter to a Sort order
func ValidateSort(s string) (cache.Sort, error) {
	switch strings.ToLower(s) {
	case "", "newest":
		return cache.SortNewest, nil
	case "score_asc":
		return cache.SortScoreAsc, nil
	case "score_desc":
		return cache.SortScoreDesc, nil
	case "name":
		return cache.SortName, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (allowed: newest, score_asc, score_desc, name)", s)
	}
}

// ValidateFoodName checks the free-text food name
func ValidateFoodName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("food name cannot be empty")
	}
	if len(name) > 200 {
		return fmt.Errorf("food name too long (max 200 characters)")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates listing limits
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 500 {
		return 500 // max limit
	}
	return limit
}
