//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/store.go -package=mocks . KeyRangeStore

// Package database implements the time-indexed storage behind meterwatch.
//
// Architecture:
//   - KeyRangeStore is the narrow contract of an external ordered key-value
//     store: upserts at a hierarchical path, inclusive key range scans and
//     child enumeration.
//   - MemoryStore, PostgresStore and DynamoStore implement it.
//   - TimeSeriesStore maps readings and anomalies onto a KeyRangeStore using
//     fixed-width timestamp keys, so that a range scan by string bounds is a
//     range scan by time.
//
// Layout:
//
//	<root>/<meterId>/data/<timestampKey>       readings
//	<root>/<meterId>/anomalies/<timestampKey>  anomalies
//
// Example usage:
//
//	kv := database.NewMemoryStore()
//	ts := database.NewTimeSeriesStore(kv, "SmartMeter/users", logger)
//	err := ts.SaveReading(ctx, reading)
//	readings, err := ts.Readings(ctx, query)
package database

import (
	"context"
	"fmt"
	"strings"
)

// Entry is a single key and its value fields as returned by a range scan.
type Entry struct {
	Key    string
	Fields map[string]string
}

// KeyRangeStore defines the operations required from the backing store.
//
// Implementations must be safe for concurrent use. Errors are returned
// unwrapped; TimeSeriesStore classifies them as models.ErrStore.
type KeyRangeStore interface {
	// Put upserts fields under key at path.
	Put(ctx context.Context, path []string, key string, fields map[string]string) error

	// Range returns every entry at path with fromKey <= key <= toKey,
	// ascending by key. The result is read in one request; no partial
	// result is returned on error.
	Range(ctx context.Context, path []string, fromKey, toKey string) ([]Entry, error)

	// Children returns the immediate child path segments below path in
	// ascending order.
	Children(ctx context.Context, path []string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// SplitPath turns "a/b/c" into its non-empty segments.
func SplitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinPath is the inverse of SplitPath.
func JoinPath(path []string) string {
	return strings.Join(path, "/")
}

// illegalSegmentChars are rejected in path segments and meter ids. The set
// matches the key restrictions of hierarchical realtime stores.
const illegalSegmentChars = "/.#$[]"

// ValidSegment reports whether s can be used as a single path segment.
func ValidSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, illegalSegmentChars)
}

// SanitizeSegment replaces every illegal character in s with '_'. It is
// used for externally named things such as consumer groups and streams.
func SanitizeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalSegmentChars, r) {
			return '_'
		}
		return r
	}, s)
}

func validatePath(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}
	for _, s := range path {
		if !ValidSegment(s) {
			return fmt.Errorf("invalid path segment %q", s)
		}
	}
	return nil
}

// childPath returns a copy of path extended by segs.
func childPath(path []string, segs ...string) []string {
	out := make([]string, 0, len(path)+len(segs))
	out = append(out, path...)
	return append(out, segs...)
}
