package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is a TTL + LRU bounded key/value cache. Entries expire lazily on Get
// and the least-recently-used entry is evicted when capacity is reached.
// Safe for concurrent use.
//
// Multiple independent instances exist in the pipeline (normalization, parse,
// narration, retrieval). They never share a keyspace: build keys with Key(),
// which folds the cache's namespace into the digest.
type Store struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	entries    map[string]*list.Element
	order      *list.List // front = most recently used

	now func() time.Time
}

type entry struct {
	key            string
	value          interface{}
	createdAt      time.Time
	ttl            time.Duration
	accessCount    int64
	lastAccessedAt time.Time
}

// New creates a Store with the given capacity and default TTL.
// Capacity <= 0 falls back to 256 entries.
func New(capacity int, defaultTTL time.Duration) *Store {
	if capacity <= 0 {
		capacity = 256
	}
	return &Store{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Get returns the cached value, or false if absent or expired.
// Expired entries are removed lazily here.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if e.ttl > 0 && s.now().Sub(e.createdAt) >= e.ttl {
		s.order.Remove(el)
		delete(s.entries, key)
		return nil, false
	}
	e.accessCount++
	e.lastAccessedAt = s.now()
	s.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key with the default TTL.
func (s *Store) Set(key string, value interface{}) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value under key. A full cache evicts the LRU entry first.
func (s *Store) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.createdAt = s.now()
		e.ttl = ttl
		s.order.MoveToFront(el)
		return
	}

	if s.order.Len() >= s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.entries, oldest.Value.(*entry).key)
		}
	}

	e := &entry{
		key:            key,
		value:          value,
		createdAt:      s.now(),
		ttl:            ttl,
		lastAccessedAt: s.now(),
	}
	s.entries[key] = s.order.PushFront(e)
}

// Delete removes a key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		s.order.Remove(el)
		delete(s.entries, key)
	}
}

// Len returns the number of live entries, counting entries that have expired
// but not yet been collected.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Key derives a cache key from a namespace and the semantically relevant
// fields of a request. Serialization is order-independent: fields are sorted
// by name before hashing, so map iteration order never changes the key.
// The namespace is part of the hashed payload, which keeps call-sites that
// share one underlying store from colliding.
func Key(namespace string, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(namespace)
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(fields[name])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
