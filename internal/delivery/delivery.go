// Package delivery defines the contract every transport entrypoint
// implements so the application can run them uniformly.
package delivery

import "context"

// Delivery is a long-running transport server (HTTP today).
type Delivery interface {
	Serve(ctx context.Context) error
}
