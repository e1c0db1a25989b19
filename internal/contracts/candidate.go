package contracts

import (
	"regexp"
	"strings"
)

// Candidate is one ticker/name pair under evaluation in a run. Immutable.
type Candidate struct {
	Code string `json:"code"` // 6-digit ticker
	Name string `json:"name"` // display name, falls back to the code itself
}

var (
	codePattern  = regexp.MustCompile(`^\d{6}$`)
	codeEmbedded = regexp.MustCompile(`\d{6}`)
	codeSplitter = regexp.MustCompile(`[\s,，;；]+`)
)

// NormalizeSymbol strips a recognized exchange suffix (.SH / .SZ), uppercases
// and validates that the remainder is exactly 6 digits. Idempotent for any
// already-normalized code.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, ".SH")
	s = strings.TrimSuffix(s, ".SZ")
	if !codePattern.MatchString(s) {
		return "", &InvalidSymbolError{Symbol: symbol}
	}
	return s, nil
}

// IsValidCode reports whether code is exactly 6 digits
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// ExtractCode pulls the first embedded 6-digit code out of an upstream
// symbol string (legacy feeds report "sh600519" style symbols). Empty when
// none is present.
func ExtractCode(raw string) string {
	return codeEmbedded.FindString(raw)
}

// ParseCodes splits free-form user input into normalized, deduplicated codes.
// Accepts comma, semicolon and whitespace separators, including the
// full-width variants common in Chinese input. Invalid items are dropped.
func ParseCodes(raw string) []string {
	items := codeSplitter.Split(strings.TrimSpace(raw), -1)
	seen := make(map[string]struct{}, len(items))
	codes := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		code, err := NormalizeSymbol(item)
		if err != nil {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// CleanName strips embedded whitespace from a display name. Some quote feeds
// pad Chinese names with spaces (e.g. "五 粮 液").
func CleanName(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}
