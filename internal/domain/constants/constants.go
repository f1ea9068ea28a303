// Package constants holds shared domain-level constant values.
package constants

// Feed provider identifiers used by the configuration.
const (
	FeedProviderWebsocket = "websocket"
	FeedProviderGoogle    = "google"
)
