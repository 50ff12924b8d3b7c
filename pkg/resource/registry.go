// Copyright © 2021 One Concern

package resource

import (
	"fmt"
	"sync"

	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
)

// Opener builds a Resource for a parsed URI.
type Opener func(u uri.URI, opts *Options) (Resource, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register makes a backend available for a URI scheme. It is intended
// to be called from backend init functions and panics on duplicate
// registrations.
func Register(scheme string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if _, dup := openers[scheme]; dup {
		panic(fmt.Sprintf("resource: Register called twice for scheme %q", scheme))
	}
	openers[scheme] = open
}

// New parses the supplied URI string and returns a Resource handled by
// the backend registered for its scheme.
//
// Make sure the backend package is imported, or import
// pkg/resource/all to get all of them.
func New(uristr string, opts ...Option) (Resource, error) {
	u, err := uri.Parse(uristr)
	if err != nil {
		return nil, err
	}
	return Open(u, opts...)
}

// Open is New for an already parsed URI.
func Open(u uri.URI, opts ...Option) (Resource, error) {
	openersMu.RLock()
	open, ok := openers[u.Scheme()]
	openersMu.RUnlock()
	if !ok {
		return nil, status.ErrNotSupported.Wrap(
			fmt.Errorf("no backend registered for scheme %q (missing import of the backend package?)", u.Scheme()))
	}
	return open(u, defaultOptions(opts))
}
