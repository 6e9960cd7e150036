// Package normalizer converts raw upstream record maps into the fixed
// credit and payment row shapes, applying date/decimal/rate/enum
// canonicalization along the way.
package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaxxstorm/loansync/internal/schema"
)

// Kind distinguishes the normalization failure modes named in the error
// handling design: each maps to a distinct handling policy upstream.
type Kind string

const (
	InvalidFormat   Kind = "InvalidFormat"
	InvalidAmount   Kind = "InvalidAmount"
	InvalidRate     Kind = "InvalidRate"
	UnknownCategory Kind = "UnknownCategory"
)

// FieldError reports a single-field normalization failure.
type FieldError struct {
	Kind  Kind
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s=%q", e.Kind, e.Field, e.Value)
}

// dateFormats are tried in order; the first one that parses wins. Go's
// reference-time layouts corresponding to the source's strptime formats.
var dateFormats = []string{
	"2006-01-02",
	"20060102",
	"02.01.2006",
	"02/01/2006",
	"Jan.06",
}

// monthMap maps English and Turkish three-letter month abbreviations to
// their 1-12 digit form, used by the Excel-corruption repair below.
var monthMap = map[string]string{
	"jan": "1", "feb": "2", "mar": "3", "apr": "4", "may": "5", "jun": "6",
	"jul": "7", "aug": "8", "sep": "9", "oct": "10", "nov": "11", "dec": "12",
	"oca": "1", "şub": "2", "nis": "4", "haz": "6",
	"tem": "7", "ağu": "8", "eyl": "9", "eki": "10", "kas": "11", "ara": "12",
}

var (
	monthDotDigits = regexp.MustCompile(`^([a-zşçöğüı]{3})\.?(\d+)`)
	digitsDotMonth = regexp.MustCompile(`^(\d+)\.([a-zşçöğüı]{3})`)
)

// repairExcelRate undoes spreadsheet auto-formatting that substitutes a
// three-letter month token for a digit group (5.14 saved as "May.14";
// 5.3 saved as "5.Mar"). Returns the input unchanged if no pattern matches.
func repairExcelRate(raw string) string {
	lower := strings.ToLower(raw)

	if m := monthDotDigits.FindStringSubmatch(lower); m != nil {
		if digit, ok := monthMap[m[1]]; ok {
			return digit + "." + m[2]
		}
	}
	if m := digitsDotMonth.FindStringSubmatch(lower); m != nil {
		if digit, ok := monthMap[m[2]]; ok {
			return m[1] + "." + digit
		}
	}
	return raw
}

// ToDate normalizes a raw date value to an ISO YYYY-MM-DD string. Absent,
// empty, and whitespace-only values all yield ("", false, nil). An
// unparseable non-empty value yields InvalidFormat.
func ToDate(field, raw string) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false, nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), true, nil
		}
	}
	return "", false, &FieldError{Kind: InvalidFormat, Field: field, Value: raw}
}

// ToDecimal normalizes a raw monetary value to a fixed-precision decimal.
// Commas are stripped; empty/absent values yield (zero, false, nil).
func ToDecimal(field, raw string, precision int32) (decimal.Decimal, bool, error) {
	if raw == "" {
		return decimal.Zero, false, nil
	}
	cleaned := strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, &FieldError{Kind: InvalidAmount, Field: field, Value: raw}
	}
	return d.Round(precision), true, nil
}

// ToRate normalizes a raw interest/tax rate to a fraction (e.g. 0.0514).
// Strips "%" and commas; "NNNbps" divides by 10000; Excel-corrupted
// tokens are repaired before parsing; magnitudes >= 1 after repair are
// treated as a percentage and divided by 100.
func ToRate(field, raw string, precision int32) (decimal.Decimal, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false, nil
	}

	cleaned := strings.ReplaceAll(strings.ReplaceAll(trimmed, "%", ""), ",", "")

	if idx := strings.Index(strings.ToLower(cleaned), "bps"); idx >= 0 {
		bpsStr := strings.TrimSpace(cleaned[:idx])
		d, err := decimal.NewFromString(bpsStr)
		if err != nil {
			return decimal.Zero, false, &FieldError{Kind: InvalidRate, Field: field, Value: raw}
		}
		return d.Div(decimal.NewFromInt(10000)).Round(precision), true, nil
	}

	repaired := repairExcelRate(cleaned)
	d, err := decimal.NewFromString(repaired)
	if err != nil {
		return decimal.Zero, false, &FieldError{Kind: InvalidRate, Field: field, Value: raw}
	}
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d.Round(precision), true, nil
}

// ToEnum resolves a raw code-or-label string against a closed enum set,
// returning the canonical wire code.
func ToEnum(field, raw string, set *schema.EnumSet) (string, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return "", false, nil
	}
	code, ok := set.Canonicalize(raw)
	if !ok {
		return "", false, &FieldError{Kind: UnknownCategory, Field: field, Value: raw}
	}
	return code, true, nil
}

// ToInt normalizes a raw integer-count field. "0" and empty/absent are
// both valid inputs: "0" parses to (0, true), empty yields (0, false).
// An unparseable non-empty value also yields (0, false) — integer counts
// are lenient by design (§4.1), never raising a NormalizationError.
func ToInt(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
