package events

import (
	"context"
	"log"
)

// FallbackPublisher drops events. It is used when no broker is configured.
type FallbackPublisher struct{}

func NewFallback() Publisher {
	return FallbackPublisher{}
}

func (FallbackPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	log.Printf("[Events] no broker configured, skipped %s (%s)", key, msg.Meta.ID)
	return nil
}

func (FallbackPublisher) Close() error {
	return nil
}
