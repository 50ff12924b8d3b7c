// Copyright © 2021 One Concern

// Package mem reserves the mem scheme for in-memory test resources.
// Only existence checks are implemented, all other operations report
// ErrNotSupported.
package mem

import (
	"context"
	"fmt"
	"io"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
)

func init() {
	resource.Register(uri.SchemeMem, func(u uri.URI, _ *resource.Options) (resource.Resource, error) {
		return New(u), nil
	})
}

// New creates a mem resource for the given URI
func New(u uri.URI) resource.Resource {
	return &memFS{u: u}
}

type memFS struct {
	u uri.URI
}

func (m *memFS) String() string { return m.u.String() }

func (m *memFS) URI() uri.URI { return m.u }

// Exists always reports true: mem resources exist by fiat
func (m *memFS) Exists(context.Context) (bool, error) {
	return true, nil
}

func (m *memFS) notSupported(op string) error {
	return status.ErrNotSupported.Wrap(fmt.Errorf("%s is not supported for scheme %q (%s)", op, m.u.Scheme(), m.u))
}

func (m *memFS) Size(context.Context) (int64, error) {
	return 0, m.notSupported("size")
}

func (m *memFS) Open(context.Context) (io.ReadCloser, error) {
	return nil, m.notSupported("open")
}

func (m *memFS) Read(context.Context) ([]byte, error) {
	return nil, m.notSupported("read")
}

func (m *memFS) Write(context.Context, []byte, bool) error {
	return m.notSupported("write")
}

func (m *memFS) Remove(context.Context) error {
	return m.notSupported("remove")
}

func (m *memFS) Mkdir(context.Context) error {
	return m.notSupported("mkdir")
}

func (m *memFS) AsLocal(context.Context) (*resource.Local, error) {
	return nil, m.notSupported("local staging")
}

func (m *memFS) TransferFrom(_ context.Context, src resource.Resource, _ resource.TransferMode, _ bool) error {
	return status.ErrUnsupportedTransfer.Wrap(
		fmt.Errorf("can not transfer %s to scheme %q", src.URI(), m.u.Scheme()))
}
