// Copyright © 2021 One Concern

package uri

import (
	"path"
	"path/filepath"
	"strings"
)

// Scheme is the URI scheme, without the "://" separator. Empty for
// scheme-less (relative local) URIs.
func (u URI) Scheme() string { return u.scheme }

// Netloc is the network location of the URI (bucket, host or package
// name depending on the scheme).
func (u URI) Netloc() string { return u.netloc }

// Path is the path component in quoted POSIX form.
func (u URI) Path() string { return u.path }

// UnquotedPath is the path component with any URI quoting reversed.
func (u URI) UnquotedPath() string { return unescapePath(u.path) }

// Query is the raw query string, if any.
func (u URI) Query() string { return u.query }

// Fragment is the fragment component, if any.
func (u URI) Fragment() string { return u.fragment }

// IsDir indicates that the URI is directory-like.
func (u URI) IsDir() bool { return u.dirLike }

// IsTemporary indicates that the URI points to a temporary resource.
func (u URI) IsTemporary() bool { return u.temporary }

// IsLocal indicates that the URI refers to the local filesystem.
func (u URI) IsLocal() bool { return u.scheme == "" || u.scheme == SchemeFile }

// IsAbs indicates that the resource is fully specified. This is always
// true except for scheme-less relative paths.
func (u URI) IsAbs() bool {
	if u.scheme != "" {
		return true
	}
	return filepath.IsAbs(u.path)
}

// OSPath is the path component localized to the current OS. It is only
// meaningful for local URIs and empty otherwise.
func (u URI) OSPath() string {
	switch u.scheme {
	case SchemeFile:
		return unescapePath(u.path)
	case "":
		return u.path
	default:
		return ""
	}
}

// String returns the URI in string form.
func (u URI) String() string {
	if u.scheme == "" {
		return u.path
	}
	var b strings.Builder
	b.WriteString(u.scheme)
	b.WriteString("://")
	b.WriteString(u.netloc)
	b.WriteString(u.path)
	if u.query != "" {
		b.WriteString("?")
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteString("#")
		b.WriteString(u.fragment)
	}
	return b.String()
}

// Equal compares two URIs by their string form.
func (u URI) Equal(other URI) bool { return u.String() == other.String() }

// RelativeToPathRoot returns the path relative to the network
// location, that is the path with the leading separator stripped.
// Always unquotes. Directory-like URIs keep their trailing separator.
func (u URI) RelativeToPathRoot() string {
	p := strings.TrimPrefix(u.path, "/")
	if p == "" {
		p = "."
	}
	if u.dirLike && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return unescapePath(p)
}

// IsRoot indicates that this URI points to the root of the network
// location.
func (u URI) IsRoot() bool {
	p := u.RelativeToPathRoot()
	return p == "./" || p == "."
}

// Split divides the URI into a directory-like head URI and the last
// path component. The tail is empty when the path ends on a separator
// and never contains separators. It is unquoted.
func (u URI) Split() (URI, string) {
	dir, file := path.Split(u.path)
	head := u
	head.dirLike = true
	head.temporary = false
	switch {
	case dir == "" && u.scheme != "":
		// netloc-rooted URI with an empty path
		head.path = "/"
	case dir == "":
		// relative scheme-less path with a bare file name
		head.path = "./"
	default:
		head.path = dir
	}
	return head, unescapePath(file)
}

// Basename returns the last path component. Empty when the path ends
// on a separator. Equivalent of path.Base without its special cases.
func (u URI) Basename() string {
	_, tail := u.Split()
	return tail
}

// Dirname returns a directory-like URI containing all the directories
// of the path component.
func (u URI) Dirname() URI {
	head, _ := u.Split()
	return head
}

// Parent returns the enclosing directory of this URI. For file-like
// URIs this is Dirname, for directory-like URIs the directory one
// level up.
func (u URI) Parent() URI {
	if !u.dirLike {
		return u.Dirname()
	}
	trimmed := strings.TrimSuffix(u.path, "/")
	if trimmed == "" {
		// already at the root
		return u
	}
	dir, _ := path.Split(trimmed)
	parent := u
	parent.dirLike = true
	if dir == "" {
		if u.scheme != "" {
			dir = "/"
		} else {
			dir = "./"
		}
	}
	parent.path = dir
	return parent
}

// Join returns a new URI with the supplied path components appended to
// the directory part of this URI. The path is assumed to name a file
// unless it ends with a separator. It is quoted according to the URI
// scheme.
func (u URI) Join(p string) URI {
	nu := u.Dirname()
	if nu.quotePaths() {
		p = escapePath(p)
	}
	endsOnSep := strings.HasSuffix(p, "/")
	nu.path = path.Join(nu.path, p)
	if endsOnSep {
		if !strings.HasSuffix(nu.path, "/") {
			nu.path += "/"
		}
	} else {
		nu.dirLike = false
	}
	return nu
}

// UpdatedFile returns a new URI with the final path component replaced
// by the supplied file name. The result is never directory-like.
func (u URI) UpdatedFile(name string) URI {
	if u.quotePaths() {
		name = escapePath(name)
	}
	dir, _ := path.Split(u.path)
	nu := u
	nu.path = path.Join(dir, name)
	nu.dirLike = false
	return nu
}

// Extension returns the file extension(s) of the URI path, including
// the leading dot. Usually only the last extension is returned, unless
// the final one indicates file compression, in which case the combined
// extension (e.g. ".fits.gz") is returned. Empty when there is no
// extension.
func (u URI) Extension() string {
	special := map[string]bool{".gz": true, ".bz2": true, ".xz": true, ".fz": true}

	name := unescapePath(path.Base(strings.TrimSuffix(u.path, "/")))
	// a leading dot marks a hidden file, not an extension
	name = strings.TrimPrefix(name, ".")
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	exts := parts[1:]
	ext := "." + exts[len(exts)-1]
	if len(exts) > 1 && special[ext] {
		ext = "." + exts[len(exts)-2] + ext
	}
	return ext
}

// RelativeTo returns the sub path of this URI relative to the supplied
// parent URI. The second return value reports whether a parent-child
// relationship exists: scheme and netloc must match, with file and
// scheme-less URIs considered interoperable.
func (u URI) RelativeTo(other URI) (string, bool) {
	if u.IsLocal() && other.IsLocal() {
		switch {
		case !u.IsAbs() && !other.IsAbs():
			return relPath(u.RelativeToPathRoot(), other.RelativeToPathRoot())
		case !u.IsAbs():
			// a relative child is resolved inside the absolute parent,
			// this matters when the child path climbs out with ".."
			child := other.Join(u.path)
			return child.RelativeTo(other)
		case !other.IsAbs():
			return "", false
		default:
			return relPath(u.forceFile().RelativeToPathRoot(), other.forceFile().RelativeToPathRoot())
		}
	}
	if u.scheme != other.scheme || u.netloc != other.netloc {
		return "", false
	}
	return relPath(u.RelativeToPathRoot(), other.RelativeToPathRoot())
}

func relPath(child, parent string) (string, bool) {
	parent = strings.TrimSuffix(parent, "/")
	child = strings.TrimSuffix(child, "/")
	if parent == "" || parent == "." {
		return child, true
	}
	if child == parent {
		return ".", true
	}
	if strings.HasPrefix(child, parent+"/") {
		return child[len(parent)+1:], true
	}
	return "", false
}

// forceFile promotes a scheme-less absolute URI to an explicit file
// URI, quoting the path. No-op for file URIs.
func (u URI) forceFile() URI {
	if u.scheme == SchemeFile {
		return u
	}
	nu := u
	nu.scheme = SchemeFile
	nu.path = escapePath(u.path)
	return nu
}

// quotePaths indicates whether path fragments joined to this URI must
// be quoted. Scheme-less URIs use raw OS paths.
func (u URI) quotePaths() bool { return u.scheme != "" }
