package idempotency

import (
	"fmt"
	"strings"
	"time"
)

// KeyPrefix namespaces every claim key in the shared store.
const KeyPrefix = "idempotency"

const dayLayout = "2006-01-02"

// Key builds the day-scoped claim key for an operation on a resource:
// idempotency:{operation}:{resourceID}:{YYYY-MM-DD}. The day bucket is
// taken in UTC, so a new UTC day opens a fresh reprocessing window.
// Operation names must be single tokens without ":".
func Key(operation string, resourceID int, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s", KeyPrefix, operation, resourceID, Day(at))
}

// Day formats the UTC day bucket for at.
func Day(at time.Time) string {
	return at.UTC().Format(dayLayout)
}

// ScanPattern matches every claim key regardless of operation and day.
func ScanPattern() string {
	return KeyPrefix + ":*"
}

// DayOf extracts the day bucket from a claim key. The second return value
// is false for keys that do not follow the claim key layout.
func DayOf(key string) (string, bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != KeyPrefix {
		return "", false
	}

	if _, err := time.Parse(dayLayout, parts[3]); err != nil {
		return "", false
	}

	return parts[3], true
}
