// Package services provides typed wrappers over the platform's business
// endpoints. Each wrapper is a thin request/response mapping with no session
// logic of its own: credentials, 401 handling, and error classification all
// come from the authclient.Client it is built on. Wrappers may be called
// concurrently from any number of application screens.
package services

import (
	"context"
)

// Doer executes an authenticated JSON API call. *authclient.Client satisfies
// this interface.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}
