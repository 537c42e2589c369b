package search

import (
	"context"
	"sync"
	"time"
)

// FeedbackCounter is the slice of the store the cache needs: vote counts for
// one (document, page).
type FeedbackCounter interface {
	GetFeedbackCounts(ctx context.Context, documentID string, page int) (positive, negative int, err error)
}

// ComputeBoost derives the relevance multiplier from vote counts:
// 1.0 + 0.1 per net positive vote, clamped to [0.1, 3.0].
func ComputeBoost(positive, negative int) float64 {
	boost := 1.0 + 0.1*float64(positive-negative)
	if boost < 0.1 {
		return 0.1
	}
	if boost > 3.0 {
		return 3.0
	}
	return boost
}

type pageKey struct {
	DocumentID string
	Page       int
}

type boostEntry struct {
	boost     float64
	expiresAt time.Time
}

// BoostCache memoizes feedback boosts per (document, page) with a fixed TTL.
// It is a derived cache, rebuildable from the feedback store at any time.
//
// One mutex guards the map and is held across recomputation, so an
// invalidation cannot interleave with a recompute and leave a stale value
// behind.
type BoostCache struct {
	mu      sync.Mutex
	entries map[pageKey]boostEntry
	ttl     time.Duration
	store   FeedbackCounter
	now     func() time.Time
}

const DefaultBoostTTL = 5 * time.Minute

func NewBoostCache(store FeedbackCounter, ttl time.Duration) *BoostCache {
	if ttl <= 0 {
		ttl = DefaultBoostTTL
	}
	return &BoostCache{
		entries: make(map[pageKey]boostEntry),
		ttl:     ttl,
		store:   store,
		now:     time.Now,
	}
}

// Boost returns the current multiplier for a page, recomputing from the
// feedback store on a miss or an expired entry.
func (c *BoostCache) Boost(ctx context.Context, documentID string, page int) (float64, error) {
	key := pageKey{DocumentID: documentID, Page: page}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		return e.boost, nil
	}

	positive, negative, err := c.store.GetFeedbackCounts(ctx, documentID, page)
	if err != nil {
		return 0, err
	}

	boost := ComputeBoost(positive, negative)
	c.entries[key] = boostEntry{boost: boost, expiresAt: c.now().Add(c.ttl)}
	return boost, nil
}

// Invalidate drops the cached boost for a page so the next lookup reflects
// freshly submitted feedback, without waiting for the TTL.
func (c *BoostCache) Invalidate(documentID string, page int) {
	key := pageKey{DocumentID: documentID, Page: page}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
