// Copyright © 2021 One Concern

// Package localfs implements resources on the local filesystem, for
// both explicit file URIs and scheme-less paths.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func init() {
	opener := func(u uri.URI, o *resource.Options) (resource.Resource, error) {
		return New(u, Fs(o.Fs), Logger(o.Logger), TmpDir(o.TmpDir)), nil
	}
	resource.Register(uri.SchemeFile, opener)
	resource.Register("", opener)
}

// Option is a functor to pass optional parameters to this backend
type Option func(*localFS)

// Fs overrides the backing filesystem, e.g. with afero.NewMemMapFs()
// for tests. Link transfer modes require the real OS filesystem.
func Fs(fs afero.Fs) Option {
	return func(l *localFS) {
		if fs != nil {
			l.fs = fs
		}
	}
}

// Logger specifies a logger for this backend
func Logger(logger *zap.Logger) Option {
	return func(l *localFS) {
		if logger != nil {
			l.l = logger
		}
	}
}

// TmpDir overrides the directory for scratch copies
func TmpDir(dir string) Option {
	return func(l *localFS) {
		l.tmpDir = dir
	}
}

// New creates a local filesystem resource for the given URI
func New(u uri.URI, opts ...Option) resource.Resource {
	l := &localFS{
		u:  u,
		fs: afero.NewOsFs(),
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(l)
	}
	return l
}

type localFS struct {
	u      uri.URI
	fs     afero.Fs
	l      *zap.Logger
	tmpDir string
}

func (l *localFS) String() string { return l.u.String() }

func (l *localFS) URI() uri.URI { return l.u }

func (l *localFS) ospath() string { return l.u.OSPath() }

// isOsFs reports whether the backing filesystem is the real one, which
// is required for link transfers and direct local paths.
func (l *localFS) isOsFs() bool {
	_, ok := l.fs.(*afero.OsFs)
	return ok
}

func (l *localFS) Exists(_ context.Context) (bool, error) {
	_, err := l.fs.Stat(l.ospath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *localFS) Size(_ context.Context) (int64, error) {
	fi, err := l.fs.Stat(l.ospath())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, status.ErrNotExists.Wrap(err)
		}
		return 0, err
	}
	if fi.IsDir() {
		return 0, nil
	}
	return fi.Size(), nil
}

func (l *localFS) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := l.fs.Open(l.ospath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, err
	}
	return f, nil
}

func (l *localFS) Read(ctx context.Context) ([]byte, error) {
	rdr, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return io.ReadAll(rdr)
}

func (l *localFS) Write(_ context.Context, data []byte, overwrite bool) error {
	ospath := l.ospath()
	if dir := filepath.Dir(ospath); dir != "" {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("ensuring directories for %q: %w", ospath, err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flag = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	f, err := l.fs.OpenFile(ospath, flag, 0644)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.Wrap(err)
		}
		return fmt.Errorf("create %q: %w", ospath, err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", ospath, err)
	}
	return f.Close()
}

func (l *localFS) Remove(_ context.Context) error {
	if err := l.fs.Remove(l.ospath()); err != nil {
		if os.IsNotExist(err) {
			return status.ErrNotExists.Wrap(err)
		}
		return fmt.Errorf("removing %q: %w", l.ospath(), err)
	}
	return nil
}

func (l *localFS) Mkdir(_ context.Context) error {
	if !l.u.IsDir() {
		return status.ErrNotDirectory.Wrap(fmt.Errorf("can not create a directory for file-like URI %s", l.u))
	}
	ospath := l.ospath()
	fi, err := l.fs.Stat(ospath)
	switch {
	case os.IsNotExist(err):
		return l.fs.MkdirAll(ospath, 0755)
	case err != nil:
		return err
	case !fi.IsDir():
		return status.ErrNotDirectory.Wrap(fmt.Errorf("%s exists but is not a directory", l.u))
	default:
		return nil
	}
}

func (l *localFS) AsLocal(ctx context.Context) (*resource.Local, error) {
	if l.isOsFs() {
		abs, err := filepath.Abs(l.ospath())
		if err != nil {
			return nil, err
		}
		return &resource.Local{Path: abs, Temporary: false}, nil
	}

	// the backing filesystem is virtual, materialize a scratch copy
	rdr, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	tmp, err := resource.TempFile(l.u, l.tmpDir)
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(tmp, rdr); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("staging %s: %w", l.u, err)
	}
	if err = tmp.Close(); err != nil {
		return nil, err
	}
	return &resource.Local{Path: tmp.Name(), Temporary: true}, nil
}

// Walk visits the directory tree under a directory-like URI.
func (l *localFS) Walk(ctx context.Context, fn resource.WalkFunc) error {
	if !l.u.IsDir() {
		return status.ErrNotDirectory.Wrap(fmt.Errorf("can not walk non-directory URI %s", l.u))
	}
	return l.walk(ctx, l.u, fn)
}

func (l *localFS) walk(ctx context.Context, dir uri.URI, fn resource.WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := afero.ReadDir(l.fs, dir.OSPath())
	if err != nil {
		if os.IsNotExist(err) {
			return status.ErrNotExists.Wrap(err)
		}
		return err
	}

	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name()+"/")
		} else {
			files = append(files, e.Name())
		}
	}
	if err = fn(dir, dirs, files); err != nil {
		return err
	}
	for _, d := range dirs {
		if err = l.walk(ctx, dir.Join(d), fn); err != nil {
			return err
		}
	}
	return nil
}
