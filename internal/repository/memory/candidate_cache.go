package memory

import (
	"time"

	"ai-companion-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CandidateCache keeps a per-user snapshot of recently indexed sources. It
// backs keyword retrieval when the embedding provider is unavailable and the
// suggestion endpoint, which never needs vector search.
type CandidateCache struct {
	cache *cache.Cache
}

func NewCandidateCache() *CandidateCache {
	// Candidates expire after 12 hours, purge sweep every 30 minutes.
	c := cache.New(12*time.Hour, 30*time.Minute)
	return &CandidateCache{
		cache: c,
	}
}

func (r *CandidateCache) key(userId uuid.UUID, kind entity.SourceKind) string {
	return userId.String() + ":" + string(kind)
}

func (r *CandidateCache) Put(userId uuid.UUID, kind entity.SourceKind, candidates []entity.ContextSource) {
	r.cache.Set(r.key(userId, kind), candidates, cache.DefaultExpiration)
}

func (r *CandidateCache) Get(userId uuid.UUID, kind entity.SourceKind) ([]entity.ContextSource, bool) {
	if x, found := r.cache.Get(r.key(userId, kind)); found {
		return x.([]entity.ContextSource), true
	}
	return nil, false
}

// GetAll returns the cached candidates for every kind in iteration order.
func (r *CandidateCache) GetAll(userId uuid.UUID) []entity.ContextSource {
	var all []entity.ContextSource
	for _, kind := range entity.KindOrder {
		if candidates, found := r.Get(userId, kind); found {
			all = append(all, candidates...)
		}
	}
	return all
}

func (r *CandidateCache) Delete(userId uuid.UUID, kind entity.SourceKind) {
	r.cache.Delete(r.key(userId, kind))
}
