package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/Vasu1712/scenyx-chat/internal/models"
)

// ConversationSource is the persistence collaborator that owns conversations.
type ConversationSource interface {
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
}

// MembershipCache stores resolved memberships. Get returns (nil, nil) on a miss.
type MembershipCache interface {
	Get(ctx context.Context, conversationID string) (*models.Membership, error)
	Set(ctx context.Context, m *models.Membership) error
	Invalidate(ctx context.Context, conversationID string) error
}

// Resolver is the single place relay paths look up who belongs to a
// conversation. Every membership mutation must call Invalidate.
type Resolver struct {
	source ConversationSource
	cache  MembershipCache
}

// NewResolver returns a resolver over source. cache may be nil.
func NewResolver(source ConversationSource, cache MembershipCache) *Resolver {
	return &Resolver{source: source, cache: cache}
}

// Members returns the membership of conversationID.
func (r *Resolver) Members(ctx context.Context, conversationID string) (*models.Membership, error) {
	if r.cache != nil {
		m, err := r.cache.Get(ctx, conversationID)
		if err != nil {
			log.Printf("[Chat] membership cache read for %s failed, falling back to store: %v", conversationID, err)
		} else if m != nil {
			return m, nil
		}
	}

	conv, err := r.source.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolve members of %s: %w", conversationID, err)
	}
	m := conv.Membership()

	if r.cache != nil {
		if err := r.cache.Set(ctx, m); err != nil {
			log.Printf("[Chat] membership cache write for %s failed: %v", conversationID, err)
		}
	}
	return m, nil
}

// Invalidate drops any cached membership for conversationID.
func (r *Resolver) Invalidate(ctx context.Context, conversationID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, conversationID); err != nil {
		log.Printf("[Chat] membership cache invalidation for %s failed: %v", conversationID, err)
	}
}
