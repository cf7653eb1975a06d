package analyzer

import (
	"strconv"
	"strings"
)

// NormalizeID canonicalizes heterogeneous identifier representations into a
// single string form. Warehouse exports round-trip keys through CSV, so the
// same identifier shows up as "3", "3.0", or an empty/NA cell depending on
// which table it came from. The same function must run at indexing time and
// at query time or scoped filters silently match nothing.
//
// Missing values normalize to "0"; float-like values truncate to their
// integer decimal form; anything else passes through unchanged. The function
// is idempotent.
func NormalizeID(value string) string {
	trimmed := strings.TrimSpace(value)
	if isMissing(trimmed) {
		return "0"
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return value
	}
	return strconv.FormatInt(int64(f), 10)
}

func isMissing(value string) bool {
	switch strings.ToLower(value) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
