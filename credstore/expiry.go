package credstore

import (
	"strconv"
	"time"
)

// FormatExpiry renders an expiry as unix milliseconds, the format of the access_token_expiry entry.
func FormatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseExpiry is the inverse of FormatExpiry. Malformed values yield the zero time.
func ParseExpiry(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
