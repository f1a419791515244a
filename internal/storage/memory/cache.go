package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// MembershipCache is a process-local, TTL-bounded membership cache.
type MembershipCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	membership models.Membership
	expires    time.Time
}

func NewMembershipCache(ttl time.Duration) *MembershipCache {
	return &MembershipCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *MembershipCache) Get(ctx context.Context, conversationID string) (*models.Membership, error) {
	c.mu.RLock()
	e, ok := c.entries[conversationID]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, nil
	}
	m := e.membership
	m.Members = append([]string(nil), e.membership.Members...)
	return &m, nil
}

func (c *MembershipCache) Set(ctx context.Context, m *models.Membership) error {
	stored := *m
	stored.Members = append([]string(nil), m.Members...)
	c.mu.Lock()
	c.entries[m.ConversationID] = cacheEntry{membership: stored, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MembershipCache) Invalidate(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	delete(c.entries, conversationID)
	c.mu.Unlock()
	return nil
}
