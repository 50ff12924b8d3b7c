// Copyright © 2021 One Concern

// Package web implements resources served over http(s), with optional
// WebDAV extensions for write operations. Plain web servers remain
// usable read-only.
package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
	"go.uber.org/zap"
)

func init() {
	opener := func(u uri.URI, o *resource.Options) (resource.Resource, error) {
		return New(u, Client(o.HTTPClient), Logger(o.Logger), TmpDir(o.TmpDir)), nil
	}
	resource.Register(uri.SchemeHTTP, opener)
	resource.Register(uri.SchemeHTTPS, opener)
}

// Option is a functor to pass optional parameters to this backend
type Option func(*webFS)

// Client overrides the http client used for all requests
func Client(client *http.Client) Option {
	return func(w *webFS) {
		if client != nil {
			w.client = client
		}
	}
}

// Logger specifies a logger for this backend
func Logger(logger *zap.Logger) Option {
	return func(w *webFS) {
		if logger != nil {
			w.l = logger
		}
	}
}

// TmpDir overrides the directory for scratch copies
func TmpDir(dir string) Option {
	return func(w *webFS) {
		w.tmpDir = dir
	}
}

// New creates a web resource for the given URI
func New(u uri.URI, opts ...Option) resource.Resource {
	w := &webFS{
		u:      u,
		client: newHTTPClient(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(w)
	}
	w.noRedirect = &http.Client{
		Timeout:   w.client.Timeout,
		Transport: w.client.Transport,
		Jar:       w.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return w
}

type webFS struct {
	u          uri.URI
	client     *http.Client
	noRedirect *http.Client
	l          *zap.Logger
	tmpDir     string
}

func (w *webFS) String() string { return w.u.String() }

func (w *webFS) URI() uri.URI { return w.u }

func (w *webFS) withURI(u uri.URI) *webFS {
	clone := *w
	clone.u = u
	return &clone
}

func (w *webFS) Exists(ctx context.Context) (bool, error) {
	resp, err := w.do(ctx, http.MethodHead, w.u.String(), nil, nil, true)
	if err != nil {
		return false, err
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusUnauthorized:
		return false, status.ErrUnauthorized.Wrap(fmt.Errorf("HEAD %s: %s", w.u, resp.Status))
	case http.StatusForbidden:
		return false, status.ErrForbidden.Wrap(fmt.Errorf("HEAD %s: %s", w.u, resp.Status))
	default:
		return false, status.ErrStorageAPI.Wrap(fmt.Errorf("HEAD %s: unexpected status %s", w.u, resp.Status))
	}
}

func (w *webFS) Size(ctx context.Context) (int64, error) {
	if w.u.IsDir() {
		return 0, nil
	}
	resp, err := w.do(ctx, http.MethodHead, w.u.String(), nil, nil, true)
	if err != nil {
		return 0, err
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusOK:
		if resp.ContentLength < 0 {
			return 0, status.ErrStorageAPI.Wrap(fmt.Errorf("HEAD %s: no content length reported", w.u))
		}
		return resp.ContentLength, nil
	case http.StatusNotFound:
		return 0, status.ErrNotExists.Wrap(fmt.Errorf("resource %s does not exist", w.u))
	default:
		return 0, status.ErrStorageAPI.Wrap(fmt.Errorf("HEAD %s: unexpected status %s", w.u, resp.Status))
	}
}

func (w *webFS) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := w.do(ctx, http.MethodGet, w.u.String(), nil, nil, true)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusNotFound:
		drain(resp)
		return nil, status.ErrNotExists.Wrap(fmt.Errorf("resource %s does not exist", w.u))
	default:
		drain(resp)
		return nil, status.ErrStorageAPI.Wrap(fmt.Errorf("GET %s: unexpected status %s", w.u, resp.Status))
	}
}

func (w *webFS) Read(ctx context.Context) ([]byte, error) {
	rdr, err := w.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return io.ReadAll(rdr)
}

// Write uploads data with a PUT. An empty probe PUT is issued first to
// discover redirected upload locations, some endpoints (e.g. dCache)
// answer the probe with a 307 pointing at the node to write to.
func (w *webFS) Write(ctx context.Context, data []byte, overwrite bool) error {
	if !overwrite {
		exists, err := w.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return status.ErrExists.Wrap(fmt.Errorf("remote resource %s exists and overwrite has been disabled", w.u))
		}
	}

	dest, err := w.finalWriteURL(ctx)
	if err != nil {
		return err
	}

	resp, err := w.do(ctx, http.MethodPut, dest, func() (io.Reader, error) {
		return bytes.NewReader(data), nil
	}, w.uploadHeaders(), true)
	if err != nil {
		return err
	}
	drain(resp)
	return checkWriteStatus(resp, w.u)
}

// finalWriteURL resolves the effective upload URL via an empty PUT
// with redirects disabled.
func (w *webFS) finalWriteURL(ctx context.Context) (string, error) {
	resp, err := w.do(ctx, http.MethodPut, w.u.String(), nil, w.uploadHeaders(), false)
	if err != nil {
		return "", err
	}
	drain(resp)
	if resp.StatusCode == http.StatusTemporaryRedirect {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
	}
	return w.u.String(), nil
}

func (w *webFS) uploadHeaders() map[string]string {
	headers := make(map[string]string)
	if useExpect100() {
		headers["Expect"] = "100-continue"
	}
	return headers
}

func checkWriteStatus(resp *http.Response, u uri.URI) error {
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(fmt.Errorf("PUT %s: %s", u, resp.Status))
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(fmt.Errorf("PUT %s: %s", u, resp.Status))
	default:
		return status.ErrStorageAPI.Wrap(fmt.Errorf("PUT %s: unexpected status %s", u, resp.Status))
	}
}

func (w *webFS) Remove(ctx context.Context) error {
	resp, err := w.do(ctx, http.MethodDelete, w.u.String(), nil, nil, true)
	if err != nil {
		return err
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return status.ErrNotExists.Wrap(fmt.Errorf("resource %s does not exist", w.u))
	default:
		return status.ErrStorageAPI.Wrap(fmt.Errorf("DELETE %s: unexpected status %s", w.u, resp.Status))
	}
}

// Mkdir creates a WebDAV collection with MKCOL, ensuring parent
// collections first. Servers without WebDAV support can not create
// directories.
func (w *webFS) Mkdir(ctx context.Context) error {
	if !w.u.IsDir() {
		return status.ErrNotDirectory.Wrap(fmt.Errorf("can not create a directory for file-like URI %s", w.u))
	}
	dav, err := w.isWebdavEndpoint(ctx)
	if err != nil {
		return err
	}
	if !dav {
		return status.ErrNotSupported.Wrap(fmt.Errorf("endpoint for %s does not implement WebDAV", w.u))
	}

	exists, err := w.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if parent := w.u.Parent(); !parent.Equal(w.u) && parent.Path() != "/" {
		if err = w.withURI(parent).Mkdir(ctx); err != nil {
			return err
		}
	}

	resp, err := w.do(ctx, "MKCOL", w.u.String(), nil, nil, true)
	if err != nil {
		return err
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusMethodNotAllowed:
		// the collection is already there
		return nil
	default:
		return status.ErrStorageAPI.Wrap(fmt.Errorf("MKCOL %s: unexpected status %s", w.u, resp.Status))
	}
}

func (w *webFS) AsLocal(ctx context.Context) (*resource.Local, error) {
	rdr, err := w.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	tmp, err := resource.TempFile(w.u, w.tmpDir)
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

var transferModes = []resource.TransferMode{
	resource.TransferAuto,
	resource.TransferCopy,
	resource.TransferMove,
}

// TransferFrom transfers the source resource to the remote endpoint.
// Another web source on a WebDAV endpoint is copied or moved server
// side, anything else is staged through a local file.
func (w *webFS) TransferFrom(ctx context.Context, src resource.Resource, mode resource.TransferMode, overwrite bool) error {
	if !mode.In(transferModes...) {
		return status.ErrUnsupportedTransfer.Wrap(fmt.Errorf("mode %q for scheme %q", mode, w.u.Scheme()))
	}

	if !overwrite {
		exists, err := w.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return status.ErrExists.Wrap(fmt.Errorf("destination %s already exists", w.u))
		}
	}

	w.l.Debug("transferring",
		zap.Stringer("source", src.URI()),
		zap.String("mode", string(mode)),
		zap.Bool("overwrite", overwrite))

	if other, sameScheme := src.(*webFS); sameScheme {
		if dav, err := w.isWebdavEndpoint(ctx); err == nil && dav {
			return w.davTransfer(ctx, other, mode)
		}
	}

	if err := w.uploadLocal(ctx, src); err != nil {
		return err
	}
	if mode == resource.TransferMove {
		return src.Remove(ctx)
	}
	return nil
}

func (w *webFS) davTransfer(ctx context.Context, src *webFS, mode resource.TransferMode) error {
	method := "COPY"
	if mode == resource.TransferMove {
		method = "MOVE"
	}
	resp, err := w.do(ctx, method, src.u.String(), nil, map[string]string{
		"Destination": w.u.String(),
	}, true)
	if err != nil {
		return err
	}
	drain(resp)
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return status.ErrNotExists.Wrap(fmt.Errorf("source %s does not exist", src.u))
	default:
		return status.ErrStorageAPI.Wrap(fmt.Errorf("%s %s: unexpected status %s", method, src.u, resp.Status))
	}
}

func (w *webFS) uploadLocal(ctx context.Context, src resource.Resource) error {
	local, err := src.AsLocal(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = local.Release()
	}()

	dest, err := w.finalWriteURL(ctx)
	if err != nil {
		return err
	}
	f, err := os.Open(local.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	resp, err := w.do(ctx, http.MethodPut, dest, func() (io.Reader, error) {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		return f, nil
	}, w.uploadHeaders(), true)
	if err != nil {
		return err
	}
	drain(resp)
	return checkWriteStatus(resp, w.u)
}
