// Copyright © 2021 One Concern

package localfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/oneconcern/butleruri/internal/rand"
	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"github.com/oneconcern/butleruri/pkg/uri"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource(t testing.TB, path string, opts ...Option) resource.Resource {
	t.Helper()
	u, err := uri.Parse(path)
	require.NoError(t, err)
	return New(u, opts...)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	target := filepath.Join(dir, "sixteentons.txt")
	require.NoError(t, os.WriteFile(target, []byte("this is the text"), 0600))

	exists, err := testResource(t, target).Exists(ctx)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = testResource(t, filepath.Join(dir, "fifteentons.txt")).Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "deep", "nested", "file.txt")
	payload := rand.Bytes(2048)

	res := testResource(t, target)
	// missing directories are created on the way
	require.NoError(t, res.Write(ctx, payload, false))

	b, err := res.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	size, err := res.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)

	err = res.Write(ctx, payload, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrExists)

	require.NoError(t, res.Write(ctx, []byte("replaced"), true))
	b, err = res.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(b))
}

func TestReadMissing(t *testing.T) {
	ctx := context.Background()
	res := testResource(t, filepath.Join(t.TempDir(), "no-such-file.txt"))

	_, err := res.Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)

	_, err = res.Size(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "removable.txt")
	res := testResource(t, target)
	require.NoError(t, res.Write(ctx, []byte("x"), false))

	require.NoError(t, res.Remove(ctx))
	err := res.Remove(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestMkdir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	u, err := uri.Parse(filepath.Join(dir, "a", "b", "c"), uri.ForceDirectory())
	require.NoError(t, err)
	res := New(u)
	require.NoError(t, res.Mkdir(ctx))
	fi, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	// creating an existing directory is fine
	require.NoError(t, res.Mkdir(ctx))

	// a file-like URI can not name a directory, whether or not
	// anything exists at the path
	err = testResource(t, filepath.Join(dir, "filelike.txt")).Mkdir(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotDirectory)

	// a file in the way is not
	blocking := filepath.Join(dir, "blocking")
	require.NoError(t, os.WriteFile(blocking, []byte("x"), 0600))
	u, err = uri.Parse(blocking, uri.ForceDirectory())
	require.NoError(t, err)
	err = New(u).Mkdir(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotDirectory)
}

func TestAsLocal(t *testing.T) {
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "direct.txt")
	res := testResource(t, target)
	require.NoError(t, res.Write(ctx, []byte("x"), false))

	// on the real filesystem no copy is made
	local, err := res.AsLocal(ctx)
	require.NoError(t, err)
	assert.False(t, local.Temporary)
	assert.Equal(t, target, local.Path)
	require.NoError(t, local.Release())
	assert.True(t, local.Exists())
}

func TestAsLocalVirtualFs(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	tmp := t.TempDir()
	payload := rand.Bytes(512)

	res := testResource(t, "/virtual/staged.txt", Fs(fs), TmpDir(tmp))
	require.NoError(t, res.Write(ctx, payload, false))

	// a virtual filesystem has no OS paths, a scratch copy is staged
	local, err := res.AsLocal(ctx)
	require.NoError(t, err)
	require.True(t, local.Temporary)
	b, err := os.ReadFile(local.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	require.NoError(t, local.Release())
	assert.False(t, local.Exists())
}

func TestWalk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	for _, p := range []string{
		"top.txt",
		"sub/one.txt",
		"sub/two.txt",
		"sub/deeper/three.txt",
	} {
		target := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
		require.NoError(t, os.WriteFile(target, []byte(p), 0600))
	}

	u, err := uri.Parse(root)
	require.NoError(t, err)
	require.True(t, u.IsDir())

	var visited []string
	err = New(u).(*localFS).Walk(ctx, func(dir uri.URI, dirs, files []string) error {
		rel, ok := dir.RelativeTo(u)
		require.True(t, ok)
		for _, f := range files {
			visited = append(visited, filepath.Join(rel, f))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(visited)
	assert.Equal(t, []string{
		"sub/deeper/three.txt",
		"sub/one.txt",
		"sub/two.txt",
		"top.txt",
	}, visited)
}

func TestWalkNonDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0600))

	err := testResource(t, target).(*localFS).Walk(context.Background(),
		func(uri.URI, []string, []string) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotDirectory)
}

func TestTransferCopy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payload := rand.Bytes(4096)

	src := testResource(t, filepath.Join(dir, "src.txt"))
	require.NoError(t, src.Write(ctx, payload, false))

	dest := testResource(t, filepath.Join(dir, "dest.txt"))
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferCopy, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	// the source is untouched
	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	// no overwrite without saying so
	err = dest.TransferFrom(ctx, src, resource.TransferCopy, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrExists)
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferCopy, true))
}

func TestTransferMove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payload := rand.Bytes(128)

	src := testResource(t, filepath.Join(dir, "src.txt"))
	require.NoError(t, src.Write(ctx, payload, false))

	dest := testResource(t, filepath.Join(dir, "moved", "dest.txt"))
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferMove, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransferAuto(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := testResource(t, filepath.Join(dir, "src.txt"))
	require.NoError(t, src.Write(ctx, []byte("linked"), false))

	// auto between real local files links them
	dest := testResource(t, filepath.Join(dir, "dest.txt"))
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferAuto, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "linked", string(b))

	srcInfo, err := os.Stat(filepath.Join(dir, "src.txt"))
	require.NoError(t, err)
	destInfo, err := os.Stat(filepath.Join(dir, "dest.txt"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, destInfo))
}

func TestTransferSymlink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := testResource(t, filepath.Join(dir, "src.txt"))
	require.NoError(t, src.Write(ctx, []byte("x"), false))

	dest := testResource(t, filepath.Join(dir, "sym.txt"))
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferSymlink, false))

	fi, err := os.Lstat(filepath.Join(dir, "sym.txt"))
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)

	rel := testResource(t, filepath.Join(dir, "rel.txt"))
	require.NoError(t, rel.TransferFrom(ctx, src, resource.TransferRelsymlink, false))
	target, err := os.Readlink(filepath.Join(dir, "rel.txt"))
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target))
}

func TestTransferLinkRestrictions(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	tmp := t.TempDir()

	virtualSrc := testResource(t, "/virtual/src.txt", Fs(fs), TmpDir(tmp))
	require.NoError(t, virtualSrc.Write(ctx, []byte("x"), false))

	// links can not point at a scratch copy of a virtual resource
	dest := testResource(t, filepath.Join(tmp, "dest.txt"))
	err := dest.TransferFrom(ctx, virtualSrc, resource.TransferSymlink, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrUnsupportedTransfer)

	// links can not be created on a virtual filesystem
	osSrc := testResource(t, filepath.Join(tmp, "real.txt"))
	require.NoError(t, osSrc.Write(ctx, []byte("x"), false))
	virtualDest := testResource(t, "/virtual/dest.txt", Fs(fs), TmpDir(tmp))
	err = virtualDest.TransferFrom(ctx, osSrc, resource.TransferSymlink, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotSupported)
}

func TestTransferUnknownMode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := testResource(t, filepath.Join(dir, "src.txt"))
	dest := testResource(t, filepath.Join(dir, "dest.txt"))

	err := dest.TransferFrom(ctx, src, resource.TransferMode("teleport"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrUnsupportedTransfer)
}

func TestTransferFromVirtualSource(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	tmp := t.TempDir()
	payload := rand.Bytes(256)

	src := testResource(t, "/virtual/src.txt", Fs(fs), TmpDir(tmp))
	require.NoError(t, src.Write(ctx, payload, false))

	// the staged scratch copy is consumed by the transfer
	dest := testResource(t, filepath.Join(tmp, "dest.txt"))
	require.NoError(t, dest.TransferFrom(ctx, src, resource.TransferCopy, false))

	b, err := dest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	// a move also removes the virtual source
	dest2 := testResource(t, filepath.Join(tmp, "dest2.txt"))
	require.NoError(t, dest2.TransferFrom(ctx, src, resource.TransferMove, false))
	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}
