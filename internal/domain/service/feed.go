// Package service defines the interfaces for external collaborators the
// domain consumes but does not own.
package service

import "context"

// FeedUser is one entry of the live-location feed. The feed is untrusted
// input; consumers drop entries with non-finite coordinates.
type FeedUser struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Budget    *int    `json:"budget,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Age       *int    `json:"age,omitempty"`
}

// FeedEventType discriminates feed events.
type FeedEventType string

const (
	// FeedEventSnapshot replaces the whole live set.
	FeedEventSnapshot FeedEventType = "snapshot"
	// FeedEventUpsert creates or updates the carried users.
	FeedEventUpsert FeedEventType = "upsert"
	// FeedEventLeave removes the carried users (session end / sign-out).
	FeedEventLeave FeedEventType = "leave"
)

// FeedEvent is a single push from the live-location feed.
type FeedEvent struct {
	Type  FeedEventType `json:"type"`
	Users []FeedUser    `json:"users"`
}

// FeedHandler consumes feed events. Handlers must be fast; slow work belongs
// on the consumer's side.
type FeedHandler func(event FeedEvent)

// FeedSource is a realtime push subscription delivering live user positions.
// The returned teardown function is synchronous and idempotent: calling it
// twice is a no-op.
type FeedSource interface {
	Subscribe(ctx context.Context, handler FeedHandler) (unsubscribe func(), err error)
}
