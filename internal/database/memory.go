package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process KeyRangeStore. It backs local runs and tests
// and mirrors the semantics of the persistent stores.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]map[string]map[string]string // path -> key -> fields
	children map[string]map[string]struct{}         // path -> child segments
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]map[string]map[string]string),
		children: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Put(ctx context.Context, path []string, key string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}
	if !ValidSegment(key) {
		return fmt.Errorf("invalid key %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := JoinPath(path)
	bucket, ok := s.entries[p]
	if !ok {
		bucket = make(map[string]map[string]string)
		s.entries[p] = bucket
	}
	bucket[key] = copyFields(fields)

	for i := 1; i < len(path); i++ {
		parent := JoinPath(path[:i])
		set, ok := s.children[parent]
		if !ok {
			set = make(map[string]struct{})
			s.children[parent] = set
		}
		set[path[i]] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Range(ctx context.Context, path []string, fromKey, toKey string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for k, fields := range s.entries[JoinPath(path)] {
		if k >= fromKey && k <= toKey {
			out = append(out, Entry{Key: k, Fields: copyFields(fields)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Children(ctx context.Context, path []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.children[JoinPath(path)]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ KeyRangeStore = (*MemoryStore)(nil)
