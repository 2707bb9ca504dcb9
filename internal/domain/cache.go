package domain

import (
	"context"
	"net/http"
	"time"
)

// CacheKey identifies a cached request. Only GET requests are ever cached,
// so the key is effectively the absolute URL.
type CacheKey struct {
	Method string
	URL    string
}

// CachedResponse is a fully buffered response as stored in a partition
type CachedResponse struct {
	Status   int
	Header   http.Header
	Body     []byte
	CachedAt time.Time
}

// OK reports whether the status is in the 2xx range
func (r *CachedResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Clone returns a deep copy so a stored response and the one handed to the
// caller never share header maps or body bytes.
func (r *CachedResponse) Clone() *CachedResponse {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &CachedResponse{
		Status:   r.Status,
		Header:   r.Header.Clone(),
		Body:     body,
		CachedAt: r.CachedAt,
	}
}

// CacheEntry pairs a key with its response, used for batch writes
type CacheEntry struct {
	Key      CacheKey
	Response *CachedResponse
}

// PartitionStats summarizes a single partition
type PartitionStats struct {
	Name    string
	Entries int
	Bytes   int64
}

// CacheStorage defines the persistent named partitions the manager caches into
type CacheStorage interface {
	// Open creates the partition if it does not exist yet
	Open(ctx context.Context, partition string) error
	Put(ctx context.Context, partition string, key CacheKey, resp *CachedResponse) error
	// PutAll writes every entry or none of them
	PutAll(ctx context.Context, partition string, entries []CacheEntry) error
	// Match searches the partitions in order and returns the first hit.
	// Returns nil, nil when no partition holds the key.
	Match(ctx context.Context, partitions []string, key CacheKey) (*CachedResponse, error)
	// MatchIn looks the key up in a single partition
	MatchIn(ctx context.Context, partition string, key CacheKey) (*CachedResponse, error)
	Keys(ctx context.Context) ([]string, error)
	// Delete removes the partition and every entry in it. Returns false when
	// the partition did not exist.
	Delete(ctx context.Context, partition string) (bool, error)
	Stats(ctx context.Context) ([]PartitionStats, error)
}
