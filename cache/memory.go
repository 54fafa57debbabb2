// Package cache provides caching implementations for Custodian check results.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xraph/custodian"
	"github.com/xraph/custodian/id"
)

// Compile-time interface check.
var _ custodian.Cache = (*Memory)(nil)

// Memory is an in-memory LRU-like cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *custodian.CheckResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached check result.
func (m *Memory) Get(_ context.Context, req *custodian.CheckRequest) (*custodian.CheckResult, bool) {
	key := cacheKey(req)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

// Set stores a check result in the cache.
func (m *Memory) Set(_ context.Context, req *custodian.CheckRequest, result *custodian.CheckResult) {
	key := cacheKey(req)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict oldest entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateUser removes all cached results for a user.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	prefix := userID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateFolder removes all cached results for a folder.
func (m *Memory) InvalidateFolder(_ context.Context, folderID id.FolderID) {
	marker := ":" + folderID.String() + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.Contains(k, marker) {
			delete(m.entries, k)
		}
	}
}

// cacheKey includes the actor role: an administrator and a member asking
// about the same folder and action get different answers.
func cacheKey(req *custodian.CheckRequest) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		req.Actor.ID,
		req.Actor.Role,
		req.FolderID,
		req.Action,
	)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
