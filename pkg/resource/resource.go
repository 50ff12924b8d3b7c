// Copyright © 2021 One Concern

package resource

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
)

// Resource implementations know how to access the object addressed by
// a single URI.
//
// Operations not meaningful for a scheme return status.ErrNotSupported.
type Resource interface {
	fmt.Stringer

	// URI returns the locator this resource was built from.
	URI() uri.URI

	// Exists indicates that the resource is available.
	Exists(context.Context) (bool, error)

	// Size returns the size in bytes of the resource. Directory-like
	// URIs report 0.
	Size(context.Context) (int64, error)

	// Open returns a stream with the contents of the resource.
	Open(context.Context) (io.ReadCloser, error)

	// Read returns the complete contents of the resource.
	Read(context.Context) ([]byte, error)

	// Write replaces the contents of the resource with the supplied
	// bytes. When overwrite is false the write fails with
	// status.ErrExists if the resource is already there.
	Write(ctx context.Context, data []byte, overwrite bool) error

	// Remove deletes the resource.
	Remove(context.Context) error

	// Mkdir creates the directory addressed by a directory-like URI,
	// if it does not already exist.
	Mkdir(context.Context) error

	// AsLocal makes the resource available on the local filesystem,
	// downloading it to a temporary file when remote. The caller owns
	// the returned Local and must Release it.
	AsLocal(context.Context) (*Local, error)

	// TransferFrom transfers the source resource to this location.
	TransferFrom(ctx context.Context, src Resource, mode TransferMode, overwrite bool) error
}

// WalkFunc is invoked once per directory visited by Walker.Walk with
// the names of the sub-directories (trailing separator included) and
// files it holds.
type WalkFunc func(dir uri.URI, dirs []string, files []string) error

// Walker is implemented by backends with directory listings.
type Walker interface {
	Walk(ctx context.Context, fn WalkFunc) error
}

// TransferMode selects the mechanics of a transfer between resources.
type TransferMode string

const (
	// TransferAuto lets the destination backend pick its default mode
	TransferAuto TransferMode = "auto"
	// TransferCopy copies the bytes
	TransferCopy TransferMode = "copy"
	// TransferMove is a copy followed by removal of the source
	TransferMove TransferMode = "move"
	// TransferLink hard-links and falls back to a symbolic link
	TransferLink TransferMode = "link"
	// TransferSymlink creates a symbolic link
	TransferSymlink TransferMode = "symlink"
	// TransferHardlink creates a hard link
	TransferHardlink TransferMode = "hardlink"
	// TransferRelsymlink creates a symbolic link with a relative target
	TransferRelsymlink TransferMode = "relsymlink"
)

// ParseTransferMode validates the string form of a transfer mode.
func ParseTransferMode(s string) (TransferMode, error) {
	m := TransferMode(s)
	switch m {
	case TransferAuto, TransferCopy, TransferMove, TransferLink,
		TransferSymlink, TransferHardlink, TransferRelsymlink:
		return m, nil
	}
	return "", status.ErrUnsupportedTransfer.Wrap(fmt.Errorf("unknown transfer mode %q", s))
}

// In reports whether the mode is one of the supplied modes.
func (m TransferMode) In(modes ...TransferMode) bool {
	for _, c := range modes {
		if m == c {
			return true
		}
	}
	return false
}

// IsLink reports whether the mode involves filesystem links.
func (m TransferMode) IsLink() bool {
	return m.In(TransferLink, TransferSymlink, TransferHardlink, TransferRelsymlink)
}

// Local is a resource materialized on the local filesystem, as handed
// out by Resource.AsLocal.
type Local struct {
	// Path on the local filesystem
	Path string

	// Temporary indicates that Path is a scratch copy which Release
	// will delete
	Temporary bool
}

// URI returns the locator of the local copy.
func (l *Local) URI() (uri.URI, error) {
	opts := []uri.ParseOption{}
	if l.Temporary {
		opts = append(opts, uri.Temporary())
	}
	return uri.Parse(l.Path, opts...)
}

// Exists reports whether the local copy is still in place. Callers may
// legitimately have moved it away.
func (l *Local) Exists() bool {
	_, err := os.Stat(l.Path)
	return err == nil
}

// Release deletes the local copy when it is temporary. It tolerates
// the file having been relocated by the caller.
func (l *Local) Release() error {
	if !l.Temporary {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing local copy %q: %w", l.Path, err)
	}
	return nil
}
