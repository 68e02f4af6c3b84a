package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/costomenu/reconcile/internal/domain"
)

var (
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	excelFormulaWrap = regexp.MustCompile(`^="?(.*?)"?$`)
)

// missing-value sentinels seen across the exports; all normalize to the same
// absent marker, never to zero or the empty string.
var missingSentinels = map[string]struct{}{
	"":        {},
	"n/a":     {},
	"na":      {},
	"none":    {},
	"null":    {},
	"unknown": {},
	"-":       {},
}

// SanitizeString collapses whitespace, strips Excel formula wrappers
// (`="value"`), and trims the result.
func SanitizeString(value string) string {
	value = excelFormulaWrap.ReplaceAllString(strings.TrimSpace(value), "$1")
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// IsMissing reports whether the raw value is one of the missing-value
// sentinels.
func IsMissing(value string) bool {
	_, ok := missingSentinels[strings.ToLower(SanitizeString(value))]
	return ok
}

// NormalizeEmail lowercases and trims the provided email. Values that cannot
// plausibly be an address normalize to "" (absent).
func NormalizeEmail(email string) string {
	email = strings.ToLower(SanitizeString(email))
	if IsMissing(email) || !strings.Contains(email, "@") {
		return ""
	}
	return email
}

// ParseDate accepts DD/MM/YYYY and ISO YYYY-MM-DD, with or without a time
// suffix. Missing or unparseable values return the unknown Date; missing
// dates are common in the exports and must not block ingestion.
func ParseDate(value string) domain.Date {
	value = SanitizeString(value)
	if IsMissing(value) {
		return domain.Date{}
	}
	if idx := strings.IndexAny(value, " T"); idx > 0 {
		value = value[:idx]
	}
	for _, layout := range []string{"02/01/2006", time.DateOnly, "2/1/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return domain.DateOf(t)
		}
	}
	return domain.Date{}
}

// ParseAmount parses a monetary value accepting both comma-decimal
// ("1.234,56") and period-decimal ("1234.56") variants, with an optional
// currency symbol. Missing sentinels return (0, false, nil). Negative or
// non-numeric values are rejected.
func ParseAmount(value string) (float64, bool, error) {
	value = SanitizeString(value)
	if IsMissing(value) {
		return 0, false, nil
	}
	value = strings.TrimSpace(strings.Trim(value, "€$"))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, " ", "")

	// Exports mix European ("1.234,56") and US ("1,234.56") formats. The
	// right-most separator is the decimal one; the other is a thousands
	// separator and is stripped.
	comma := strings.LastIndex(value, ",")
	period := strings.LastIndex(value, ".")
	if comma >= 0 && comma > period {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	} else if comma >= 0 {
		value = strings.ReplaceAll(value, ",", "")
	}

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", value)
	}
	if amount < 0 {
		return 0, false, fmt.Errorf("negative amount: %v", amount)
	}
	return amount, true, nil
}

// ParseCount parses a non-negative integer usage counter. Missing values
// count as zero usage; negatives and non-numerics are rejected.
func ParseCount(value string) (int, error) {
	value = SanitizeString(value)
	if IsMissing(value) {
		return 0, nil
	}
	// Some exports render counters as floats ("12.0").
	f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("not a count: %q", value)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative count: %v", f)
	}
	return int(f), nil
}

// ParseTier maps the license column onto the tier enum. Anything
// unrecognized is the Unknown tier, handled specially by the classifier.
func ParseTier(value string) domain.LicenseTier {
	switch strings.ToLower(SanitizeString(value)) {
	case "beginner":
		return domain.TierBeginner
	case "professional":
		return domain.TierProfessional
	case "expert":
		return domain.TierExpert
	default:
		return domain.TierUnknown
	}
}

// ParseLicenseStatus maps the status column onto the enum.
func ParseLicenseStatus(value string) domain.LicenseStatus {
	switch strings.ToLower(SanitizeString(value)) {
	case "active":
		return domain.LicenseActive
	case "expired":
		return domain.LicenseExpired
	default:
		return domain.LicenseUnknown
	}
}
