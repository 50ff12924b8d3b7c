// Copyright © 2021 One Concern

package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/oneconcern/butleruri/internal/rand"
	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/localfs"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// davServer is a minimal in-memory WebDAV-ish endpoint for tests
type davServer struct {
	mu      sync.Mutex
	files   map[string][]byte
	dirs    map[string]bool
	webdav  bool
	methods []string
}

func newDavServer(webdav bool) *davServer {
	return &davServer{
		files:  make(map[string][]byte),
		dirs:   map[string]bool{"/": true},
		webdav: webdav,
	}
}

func (d *davServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.methods = append(d.methods, r.Method)

	switch r.Method {
	case http.MethodOptions:
		if d.webdav {
			w.Header().Set("DAV", "1, 2")
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if b, ok := d.files[r.URL.Path]; ok {
			w.Header().Set("Content-Length", strconv.Itoa(len(b)))
			w.WriteHeader(http.StatusOK)
			return
		}
		if d.dirs[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodGet:
		if b, ok := d.files[r.URL.Path]; ok {
			_, _ = w.Write(b)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			d.files[r.URL.Path] = b
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		if _, ok := d.files[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(d.files, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case "MKCOL":
		if !d.webdav {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		d.dirs[r.URL.Path] = true
		w.WriteHeader(http.StatusCreated)
	case "COPY", "MOVE":
		src := r.URL.Path
		dest, err := parseDestination(r.Header.Get("Destination"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, ok := d.files[src]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		d.files[dest] = b
		if r.Method == "MOVE" {
			delete(d.files, src)
		}
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseDestination(raw string) (string, error) {
	u, err := uri.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Path(), nil
}

func testResource(t testing.TB, rawurl string, opts ...Option) resource.Resource {
	t.Helper()
	u, err := uri.Parse(rawurl)
	require.NoError(t, err)
	return New(u, opts...)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(false)
	srv.files["/present.txt"] = []byte("x")
	ts := httptest.NewServer(srv)
	defer ts.Close()

	exists, err := testResource(t, ts.URL+"/present.txt").Exists(ctx)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = testResource(t, ts.URL+"/absent.txt").Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSize(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(false)
	payload := rand.Bytes(1234)
	srv.files["/sized.txt"] = payload
	ts := httptest.NewServer(srv)
	defer ts.Close()

	size, err := testResource(t, ts.URL+"/sized.txt").Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)

	_, err = testResource(t, ts.URL+"/absent.txt").Size(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(false)
	payload := rand.Bytes(4096)
	srv.files["/data.bin"] = payload
	ts := httptest.NewServer(srv)
	defer ts.Close()

	b, err := testResource(t, ts.URL+"/data.bin").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	_, err = testResource(t, ts.URL+"/absent.bin").Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	payload := rand.Bytes(2048)
	res := testResource(t, ts.URL+"/upload.bin")
	require.NoError(t, res.Write(ctx, payload, false))

	b, err := res.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	err = res.Write(ctx, payload, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrExists)
	require.NoError(t, res.Write(ctx, payload, true))
}

func TestWriteRedirectedProbe(t *testing.T) {
	// endpoints like dCache redirect uploads to a data node with a 307
	// on the probe PUT
	ctx := context.Background()
	var final []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/file.txt", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.Header().Set("Location", "http://"+r.Host+"/redirected/file.txt")
			w.WriteHeader(http.StatusTemporaryRedirect)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/redirected/file.txt", func(w http.ResponseWriter, r *http.Request) {
		final, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	payload := rand.Bytes(64)
	require.NoError(t, testResource(t, ts.URL+"/file.txt").Write(ctx, payload, false))
	assert.Equal(t, payload, final)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(false)
	srv.files["/doomed.txt"] = []byte("x")
	ts := httptest.NewServer(srv)
	defer ts.Close()

	res := testResource(t, ts.URL+"/doomed.txt")
	require.NoError(t, res.Remove(ctx))
	err := res.Remove(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestMkdir(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	u, err := uri.Parse(ts.URL + "/a/b/c/")
	require.NoError(t, err)
	require.NoError(t, New(u).Mkdir(ctx))

	// parents were created on the way
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.True(t, srv.dirs["/a/"])
	assert.True(t, srv.dirs["/a/b/"])
	assert.True(t, srv.dirs["/a/b/c/"])
}

func TestMkdirNotWebdav(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(newDavServer(false))
	defer ts.Close()

	u, err := uri.Parse(ts.URL + "/a/")
	require.NoError(t, err)
	err = New(u).Mkdir(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotSupported)
}

func TestMkdirNotDirectory(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(newDavServer(true))
	defer ts.Close()

	err := testResource(t, ts.URL+"/file.txt").Mkdir(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotDirectory)
}

func TestAsLocal(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(false)
	payload := rand.Bytes(1024)
	srv.files["/staged.fits.gz"] = payload
	ts := httptest.NewServer(srv)
	defer ts.Close()

	local, err := testResource(t, ts.URL+"/staged.fits.gz", TmpDir(t.TempDir())).AsLocal(ctx)
	require.NoError(t, err)
	require.True(t, local.Temporary)
	assert.Equal(t, ".gz", filepath.Ext(local.Path))

	b, err := os.ReadFile(local.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, b)
	require.NoError(t, local.Release())
}

func TestTransferFromLocal(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	payload := rand.Bytes(512)
	srcPath := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(srcPath, payload, 0600))
	u, err := uri.Parse(srcPath)
	require.NoError(t, err)
	src := localfs.New(u)

	dest := testResource(t, ts.URL+"/uploaded.txt")
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferCopy, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)
}

func TestTransferServerSide(t *testing.T) {
	ctx := context.Background()
	srv := newDavServer(true)
	payload := rand.Bytes(256)
	srv.files["/from.txt"] = payload
	ts := httptest.NewServer(srv)
	defer ts.Close()

	src := testResource(t, ts.URL+"/from.txt")
	dest := testResource(t, ts.URL+"/to.txt")
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferMove, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	// the move happened on the server
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Contains(t, srv.methods, "MOVE")
}

func TestRetryOnServerError(t *testing.T) {
	ctx := context.Background()
	var hits int
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer ts.Close()

	b, err := testResource(t, ts.URL+"/flaky.txt").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(b))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, hits)
}

func TestBearerToken(t *testing.T) {
	ctx := context.Background()
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("sesame\n"), 0600))
	t.Setenv(TokenFileEnvVar, tokenFile)

	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	_, err := testResource(t, ts.URL+"/auth.txt").Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer sesame", got)
}
