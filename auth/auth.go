// Package auth decides which principals may mutate uploads.
//
// The upload service consults an Authorizer before every mutating operation
// (begin, append, remove, consolidate, finalize, abort). Read-only queries
// are not authorized.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnauthorized is returned when a principal may not perform an action.
var ErrUnauthorized = errors.New("unauthorized")

// Action names a mutating upload operation.
type Action string

// Upload actions.
const (
	ActionBegin       Action = "begin"
	ActionAppend      Action = "append"
	ActionRemove      Action = "remove"
	ActionConsolidate Action = "consolidate"
	ActionFinalize    Action = "finalize"
	ActionAbort       Action = "abort"
)

// Authorizer allows or denies an action for a principal.
type Authorizer interface {
	// Authorize returns nil if principal may perform action,
	// or an error matching ErrUnauthorized.
	Authorize(ctx context.Context, principal string, action Action) error
}

// AllowAll permits every principal. Used when no allow-list is configured.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(context.Context, string, Action) error { return nil }

// AllowList authorizes a fixed set of principals for every action.
// Thread-safe for concurrent access.
type AllowList struct {
	mu         sync.RWMutex
	principals map[string]struct{}
}

// NewAllowList creates an allow-list seeded with principals.
func NewAllowList(principals ...string) *AllowList {
	l := &AllowList{principals: make(map[string]struct{}, len(principals))}
	for _, p := range principals {
		if p != "" {
			l.principals[p] = struct{}{}
		}
	}
	return l
}

// Authorize implements Authorizer.
func (l *AllowList) Authorize(_ context.Context, principal string, action Action) error {
	if !l.IsAuthorized(principal) {
		return fmt.Errorf("%w: principal %q may not %s", ErrUnauthorized, principal, action)
	}
	return nil
}

// IsAuthorized reports whether principal is on the list.
func (l *AllowList) IsAuthorized(principal string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.principals[principal]
	return ok
}

// Add authorizes principal. Adding an existing principal is a no-op.
func (l *AllowList) Add(principal string) {
	if principal == "" {
		return
	}
	l.mu.Lock()
	l.principals[principal] = struct{}{}
	l.mu.Unlock()
}

// Remove revokes principal and reports whether it was present.
func (l *AllowList) Remove(principal string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.principals[principal]
	delete(l.principals, principal)
	return ok
}

// List returns the authorized principals, sorted.
func (l *AllowList) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.principals))
	for p := range l.principals {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// FromPrincipals returns an AllowList for a non-empty principal list and
// AllowAll otherwise.
func FromPrincipals(principals []string) Authorizer {
	if len(principals) == 0 {
		return AllowAll{}
	}
	return NewAllowList(principals...)
}

// Verify implementations satisfy Authorizer.
var (
	_ Authorizer = AllowAll{}
	_ Authorizer = (*AllowList)(nil)
)
