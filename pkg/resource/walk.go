// Copyright © 2021 One Concern

package resource

import (
	"context"
	"fmt"

	"github.com/oneconcern/butleruri/pkg/resource/status"
)

// Walk visits the directory tree under a resource, when its backend
// supports listings.
func Walk(ctx context.Context, r Resource, fn WalkFunc) error {
	w, ok := r.(Walker)
	if !ok {
		return errNotWalkable(r)
	}
	return w.Walk(ctx, fn)
}

func errNotWalkable(r Resource) error {
	return status.ErrNotSupported.Wrap(fmt.Errorf("resource %s does not support walking", r.URI()))
}
