// Package valkeystore holds the shared membership cache used when several chat
// nodes serve the same conversations.
package valkeystore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Vasu1712/scenyx-chat/internal/models"
	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "chat:members:"

// MembershipCache stores resolved memberships in Valkey with a TTL.
type MembershipCache struct {
	client valkey.Client
	ttl    time.Duration
}

// Dial connects to the Valkey server at addr.
func Dial(addr, password string, ttl time.Duration) (*MembershipCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey at %s: %w", addr, err)
	}
	log.Printf("Connected to Valkey at %s", addr)
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client valkey.Client, ttl time.Duration) *MembershipCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MembershipCache{client: client, ttl: ttl}
}

func key(conversationID string) string {
	return keyPrefix + conversationID
}

// Get returns (nil, nil) when nothing is cached for conversationID.
func (c *MembershipCache) Get(ctx context.Context, conversationID string) (*models.Membership, error) {
	raw, err := c.client.Do(ctx, c.client.B().Get().Key(key(conversationID)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", conversationID, err)
	}
	var m models.Membership
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode cached membership %s: %w", conversationID, err)
	}
	return &m, nil
}

func (c *MembershipCache) Set(ctx context.Context, m *models.Membership) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode membership %s: %w", m.ConversationID, err)
	}
	cmd := c.client.B().Set().Key(key(m.ConversationID)).Value(string(raw)).PxMilliseconds(c.ttlMillis()).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", m.ConversationID, err)
	}
	return nil
}

// ttlMillis is never zero; Valkey rejects an expiry of 0.
func (c *MembershipCache) ttlMillis() int64 {
	if ms := c.ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}

func (c *MembershipCache) Invalidate(ctx context.Context, conversationID string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(key(conversationID)).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del %s: %w", conversationID, err)
	}
	return nil
}

func (c *MembershipCache) Close() {
	c.client.Close()
}
