// Copyright © 2021 One Concern

// Package pkgres serves read-only resources bundled with a program,
// addressed as resource://package/path. Packages expose their files by
// registering an fs.FS, typically produced by go:embed.
package pkgres

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/oneconcern/butleruri/pkg/errors"
	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
)

func init() {
	resource.Register(uri.SchemeResource, func(u uri.URI, o *resource.Options) (resource.Resource, error) {
		return New(u, TmpDir(o.TmpDir)), nil
	})
}

var (
	mu       sync.RWMutex
	packages = make(map[string]fs.FS)
)

// Register exposes the files of fsys under resource://name/... URIs.
// Registering the same name twice panics.
func Register(name string, fsys fs.FS) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := packages[name]; dup {
		panic(fmt.Sprintf("pkgres: package %q registered twice", name))
	}
	packages[name] = fsys
}

func lookup(name string) (fs.FS, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fsys, ok := packages[name]
	return fsys, ok
}

// Option is a functor to pass optional parameters to this backend
type Option func(*pkgFS)

// TmpDir overrides the directory for scratch copies
func TmpDir(dir string) Option {
	return func(p *pkgFS) {
		p.tmpDir = dir
	}
}

// New creates a package resource for the given URI
func New(u uri.URI, opts ...Option) resource.Resource {
	p := &pkgFS{u: u}
	for _, apply := range opts {
		apply(p)
	}
	return p
}

type pkgFS struct {
	u      uri.URI
	tmpDir string
}

func (p *pkgFS) String() string { return p.u.String() }

func (p *pkgFS) URI() uri.URI { return p.u }

// open resolves the URI against the registered package filesystem
func (p *pkgFS) open() (fs.File, error) {
	fsys, ok := lookup(p.u.Netloc())
	if !ok {
		return nil, status.ErrNotFound.Wrap(fmt.Errorf("no resources registered for package %q (%s)", p.u.Netloc(), p.u))
	}
	f, err := fsys.Open(p.name())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrap(fmt.Errorf("resource %s does not exist", p.u))
		}
		return nil, err
	}
	return f, nil
}

// name maps the URI path to an fs.FS name, which is slash separated,
// unrooted and never ends on a separator.
func (p *pkgFS) name() string {
	if p.u.IsRoot() {
		return "."
	}
	return strings.TrimSuffix(p.u.RelativeToPathRoot(), "/")
}

func (p *pkgFS) Exists(context.Context) (bool, error) {
	f, err := p.open()
	if err != nil {
		if errors.Is(err, status.ErrNotExists) || errors.Is(err, status.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = f.Close()
	return true, nil
}

func (p *pkgFS) Size(context.Context) (int64, error) {
	if p.u.IsDir() {
		return 0, nil
	}
	f, err := p.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (p *pkgFS) Open(context.Context) (io.ReadCloser, error) {
	return p.open()
}

func (p *pkgFS) Read(ctx context.Context) ([]byte, error) {
	rdr, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return io.ReadAll(rdr)
}

// AsLocal stages the bundled resource as a scratch file so consumers
// needing an OS path can use it.
func (p *pkgFS) AsLocal(ctx context.Context) (*resource.Local, error) {
	rdr, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	tmp, err := resource.TempFile(p.u, p.tmpDir)
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(tmp, rdr); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err = tmp.Close(); err != nil {
		return nil, err
	}
	return &resource.Local{Path: tmp.Name(), Temporary: true}, nil
}

func (p *pkgFS) readOnly(op string) error {
	return status.ErrNotSupported.Wrap(fmt.Errorf("%s is not supported for read-only scheme %q (%s)", op, p.u.Scheme(), p.u))
}

func (p *pkgFS) Write(context.Context, []byte, bool) error {
	return p.readOnly("write")
}

func (p *pkgFS) Remove(context.Context) error {
	return p.readOnly("remove")
}

func (p *pkgFS) Mkdir(context.Context) error {
	return p.readOnly("mkdir")
}

func (p *pkgFS) TransferFrom(_ context.Context, src resource.Resource, _ resource.TransferMode, _ bool) error {
	return status.ErrUnsupportedTransfer.Wrap(
		fmt.Errorf("can not transfer %s to read-only scheme %q", src.URI(), p.u.Scheme()))
}
