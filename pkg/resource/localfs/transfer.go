// Copyright © 2021 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/resource/status"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var transferModes = []resource.TransferMode{
	resource.TransferAuto,
	resource.TransferCopy,
	resource.TransferMove,
	resource.TransferLink,
	resource.TransferSymlink,
	resource.TransferHardlink,
	resource.TransferRelsymlink,
}

// TransferFrom transfers the source resource onto the local
// filesystem. All modes are supported, link modes only on the real OS
// filesystem and never from temporary (downloaded) sources.
func (l *localFS) TransferFrom(ctx context.Context, src resource.Resource, mode resource.TransferMode, overwrite bool) (err error) {
	// fail early to prevent delays when remote resources are involved
	if !mode.In(transferModes...) {
		return status.ErrUnsupportedTransfer.Wrap(fmt.Errorf("mode %q for scheme %q", mode, l.u.Scheme()))
	}

	local, err := src.AsLocal(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, local.Release())
	}()

	// the default depends on whether we own a scratch copy or point at
	// somebody's real file
	if mode == resource.TransferAuto {
		if local.Temporary {
			mode = resource.TransferCopy
		} else {
			mode = resource.TransferLink
		}
	}

	if !local.Exists() {
		if local.Temporary {
			return status.ErrNotExists.Wrap(fmt.Errorf("local copy of %s has gone missing", src.URI()))
		}
		return status.ErrNotExists.Wrap(fmt.Errorf("source %s does not exist", src.URI()))
	}

	if mode.IsLink() {
		if local.Temporary {
			return status.ErrUnsupportedTransfer.Wrap(
				fmt.Errorf("can not use mode %q for remote resource %s", mode, src.URI()))
		}
		if !l.isOsFs() {
			return status.ErrNotSupported.Wrap(fmt.Errorf("mode %q requires the OS filesystem", mode))
		}
	}

	// follow soft links
	localSrc := local.Path
	if resolved, rerr := filepath.EvalSymlinks(localSrc); rerr == nil {
		localSrc = resolved
	}

	// scratch copies are ours to consume
	requested := mode
	if local.Temporary && mode == resource.TransferCopy {
		mode = resource.TransferMove
	}

	destExists, err := l.Exists(ctx)
	if err != nil {
		return err
	}
	if !overwrite && destExists {
		return status.ErrExists.Wrap(fmt.Errorf("destination %s already exists, transfer from %s aborted", l.u, src.URI()))
	}

	dest := l.ospath()
	if l.isOsFs() {
		if dest, err = filepath.Abs(dest); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(dest); dir != "" {
		if err = l.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("ensuring directories for %q: %w", dest, err)
		}
	}

	l.l.Debug("transferring",
		zap.Stringer("source", src.URI()),
		zap.String("mode", string(mode)),
		zap.Bool("overwrite", overwrite))

	// the OS won't overwrite an existing name with a link
	if mode.IsLink() && overwrite && destExists {
		_ = l.fs.Remove(dest)
	}

	switch mode {
	case resource.TransferMove:
		err = l.rename(localSrc, dest)
	case resource.TransferCopy:
		err = l.copyFile(localSrc, dest)
	case resource.TransferLink:
		if err = os.Link(localSrc, dest); err != nil {
			// cross-device or unsupported, degrade to a symlink
			err = os.Symlink(localSrc, dest)
		}
	case resource.TransferHardlink:
		err = os.Link(localSrc, dest)
	case resource.TransferSymlink:
		err = os.Symlink(localSrc, dest)
	case resource.TransferRelsymlink:
		var rel string
		if rel, err = filepath.Rel(filepath.Dir(dest), localSrc); err == nil {
			err = os.Symlink(rel, dest)
		}
	}
	if err != nil {
		return fmt.Errorf("transfer %s -> %s: %w", src.URI(), l.u, err)
	}

	// an explicit move from a remote resource also removes the remote,
	// a local move already consumed its source via rename
	if requested == resource.TransferMove && local.Temporary {
		return src.Remove(ctx)
	}
	return nil
}

func (l *localFS) rename(src, dest string) error {
	if l.isOsFs() {
		if err := os.Rename(src, dest); err == nil {
			return nil
		}
		// fall through: rename does not work across devices
	}
	if err := l.copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func (l *localFS) copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := l.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
