package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// keyLayout is the second-resolution prefix of a storage key. The
// millisecond suffix is appended by FormatKey because Go layouts only
// accept '.' or ',' before fractional seconds.
const keyLayout = "2006-01-02_15:04:05"

// keyLen is the fixed width of every key: yyyy-MM-dd_HH:mm:ss_SSS.
const keyLen = len(keyLayout) + 4

// FormatKey encodes t as a fixed-width UTC key whose lexicographic order
// equals chronological order. Sub-millisecond precision is dropped.
//
// The encoding is only order preserving for years 0000 through 9999; use
// ValidKeyTime before writing.
func FormatKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s_%03d", t.Format(keyLayout), t.Nanosecond()/int(time.Millisecond))
}

// ParseKey is the inverse of FormatKey.
func ParseKey(key string) (time.Time, error) {
	if len(key) != keyLen || key[keyLen-4] != '_' {
		return time.Time{}, fmt.Errorf("malformed key %q", key)
	}
	base, err := time.ParseInLocation(keyLayout, key[:keyLen-4], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed key %q: %w", key, err)
	}
	ms, err := strconv.Atoi(key[keyLen-3:])
	if err != nil || strings.ContainsAny(key[keyLen-3:], "+-") {
		return time.Time{}, fmt.Errorf("malformed key %q: bad milliseconds", key)
	}
	return base.Add(time.Duration(ms) * time.Millisecond), nil
}

// ValidKeyTime reports whether t can be encoded without breaking the
// fixed-width ordering of keys.
func ValidKeyTime(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 0 && y <= 9999
}
