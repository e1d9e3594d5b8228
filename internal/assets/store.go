package assets

import (
	"context"
	"sync"
	"time"

	"catalog/storefront/internal/domain"

	"github.com/google/uuid"
)

// Store keeps fetched binary payloads addressable by an opaque reference for
// as long as the owner holds them. Every Put must be paired with a Release.
type Store interface {
	Put(ctx context.Context, blob *domain.Blob) (string, error)
	Get(ctx context.Context, ref string) (*domain.Blob, error)
	Release(ctx context.Context, ref string) error
}

type memoryEntry struct {
	blob      domain.Blob
	expiresAt time.Time
}

// MemoryStore is a process local Store. Entries older than ttl are dropped on
// access even if nobody released them.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, blob *domain.Blob) (string, error) {
	ref := uuid.NewString()

	entry := memoryEntry{blob: *blob}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[ref] = entry
	s.mu.Unlock()

	return ref, nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) (*domain.Blob, error) {
	s.mu.RLock()
	entry, ok := s.entries[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		_ = s.Release(context.Background(), ref)
		return nil, domain.ErrAssetNotFound
	}

	blob := entry.blob
	return &blob, nil
}

func (s *MemoryStore) Release(_ context.Context, ref string) error {
	s.mu.Lock()
	delete(s.entries, ref)
	s.mu.Unlock()
	return nil
}

// Len reports how many assets are currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
