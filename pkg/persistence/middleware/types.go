// Package middleware decorates a ports.ProjectStore with behavior applied
// on the way in and out of storage.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a ProjectStore to add behavior.
type Middleware func(ports.ProjectStore) ports.ProjectStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.ProjectStore, mws ...Middleware) ports.ProjectStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
