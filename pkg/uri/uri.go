// Copyright © 2021 One Concern

// Package uri implements the resource locator model used to address
// datasets across storage backends.
//
// A URI wraps the usual parsed components (scheme, network location,
// path) together with bookkeeping about whether the target is
// directory-like. Scheme-less values are treated as local filesystem
// paths and are normally promoted to absolute file URIs. Paths of
// non-schemeless URIs are always kept in quoted POSIX form.
package uri

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oneconcern/butleruri/pkg/errors"
)

// Schemes understood by this package.
const (
	SchemeFile     = "file"
	SchemeS3       = "s3"
	SchemeHTTP     = "http"
	SchemeHTTPS    = "https"
	SchemeResource = "resource"
	SchemeMem      = "mem"
)

// ErrUnsupportedScheme is returned by Parse for schemes this package
// does not know about.
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// escapesRE detects URI percent escapes, used to guard against double
// encoding of local paths.
var escapesRE = regexp.MustCompile(`%[A-F0-9]{2}`)

// URI is an immutable locator value. The zero value is not valid, use
// Parse to obtain instances.
type URI struct {
	scheme    string
	netloc    string
	path      string
	query     string
	fragment  string
	dirLike   bool
	temporary bool
}

type parseOptions struct {
	root           string
	forceAbsolute  bool
	forceDirectory bool
	temporary      bool
}

// ParseOption customizes Parse behavior.
type ParseOption func(*parseOptions)

// Root sets the directory used to absolutize relative local paths.
// Defaults to the current working directory.
func Root(root string) ParseOption {
	return func(o *parseOptions) {
		o.root = root
	}
}

// KeepRelative prevents a relative scheme-less path from being
// promoted to an absolute file URI.
func KeepRelative() ParseOption {
	return func(o *parseOptions) {
		o.forceAbsolute = false
	}
}

// ForceDirectory marks the parsed URI as directory-like even without a
// trailing separator.
func ForceDirectory() ParseOption {
	return func(o *parseOptions) {
		o.forceDirectory = true
	}
}

// Temporary marks the parsed URI as pointing to a temporary resource.
func Temporary() ParseOption {
	return func(o *parseOptions) {
		o.temporary = true
	}
}

// Parse builds a URI from its string form.
//
// Strings without a scheme are interpreted as local filesystem paths:
// they undergo tilde expansion and, unless KeepRelative is given,
// resolution against the root directory, after which they become file
// URIs.
func Parse(raw string, opts ...ParseOption) (URI, error) {
	o := parseOptions{forceAbsolute: true}
	for _, apply := range opts {
		apply(&o)
	}

	// Local file names may contain characters that are reserved in
	// URIs. Quote them before handing the string to the parser unless
	// the string already contains escapes. Explicit file: URIs are
	// assumed to be quoted, people also write file:/a/b without the
	// authority part.
	toParse := raw
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "file:") {
		if !escapesRE.MatchString(raw) {
			toParse = escapePath(raw)
		}
	}

	parsed, err := url.Parse(toParse)
	if err != nil {
		return URI{}, fmt.Errorf("parsing URI %q: %w", raw, err)
	}

	u := URI{
		scheme:    parsed.Scheme,
		netloc:    parsed.Host,
		path:      parsed.EscapedPath(),
		query:     parsed.RawQuery,
		fragment:  parsed.Fragment,
		temporary: o.temporary,
	}
	if u.path == "" && parsed.Opaque != "" {
		// file:relative/path.ext parses as an opaque URL
		u.path = parsed.Opaque
	}

	switch u.scheme {
	case "":
		return fixupSchemeless(u, o)
	case SchemeFile:
		return fixupFile(u, o)
	case SchemeS3, SchemeHTTP, SchemeHTTPS, SchemeResource, SchemeMem:
		return fixupGeneric(u, o), nil
	default:
		return URI{}, ErrUnsupportedScheme.Wrap(fmt.Errorf("scheme %q in %q", u.scheme, raw))
	}
}

// MustParse is a Parse that panics on invalid input, for tests and
// package-level constants.
func MustParse(raw string, opts ...ParseOption) URI {
	u, err := Parse(raw, opts...)
	if err != nil {
		panic(err)
	}
	return u
}

func fixupGeneric(u URI, o parseOptions) URI {
	endsOnSep := strings.HasSuffix(u.path, "/")
	if o.forceDirectory || endsOnSep {
		u.dirLike = true
		if !endsOnSep {
			u.path += "/"
		}
	}
	return u
}

func fixupFile(u URI, o parseOptions) (URI, error) {
	if !strings.HasPrefix(u.path, "/") {
		// Relative file URIs are not RFC 8089 compliant but are seen
		// in the wild, resolve them now.
		root, err := resolveRoot(o.root)
		if err != nil {
			return URI{}, err
		}
		u.path = path.Clean(path.Join(escapePath(root), u.path))
	}

	forceDir := o.forceDirectory
	if !forceDir {
		// The resolved location may already exist, in which case
		// directory status is known.
		if fi, err := os.Stat(unescapePath(u.path)); err == nil && fi.IsDir() {
			forceDir = true
		}
	}
	if forceDir {
		u.dirLike = true
		if !strings.HasSuffix(u.path, "/") {
			u.path += "/"
		}
	}
	return u, nil
}

func fixupSchemeless(u URI, o parseOptions) (URI, error) {
	// The constructor quoted the path for parsing, work on the OS form.
	expanded, err := expandUser(unescapePath(u.path))
	if err != nil {
		return URI{}, err
	}
	endsOnSep := strings.HasSuffix(expanded, string(os.PathSeparator))

	dirLike := false
	ospath := expanded
	switch {
	case filepath.IsAbs(expanded):
		ospath = filepath.Clean(expanded)
	case o.forceAbsolute:
		root, rerr := resolveRoot(o.root)
		if rerr != nil {
			return URI{}, rerr
		}
		ospath = filepath.Clean(filepath.Join(root, expanded))
	default:
		ospath = filepath.Clean(expanded)
		if expanded == "" {
			// Clean("") is "." which is a directory
			dirLike = true
		}
	}

	forceDir := o.forceDirectory
	if !forceDir {
		if fi, serr := os.Stat(ospath); serr == nil && fi.IsDir() {
			forceDir = true
		}
	}
	if forceDir || endsOnSep || dirLike {
		dirLike = true
		if !strings.HasSuffix(ospath, string(os.PathSeparator)) {
			ospath += string(os.PathSeparator)
		}
	}

	u.dirLike = dirLike
	if filepath.IsAbs(ospath) {
		// Promote to an explicit file URI, which implies quoting.
		u.scheme = SchemeFile
		u.path = escapePath(ospath)
	} else {
		u.path = ospath
	}
	return u, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving current directory: %w", err)
		}
		return cwd, nil
	}
	return filepath.Abs(root)
}

func expandUser(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~"+string(os.PathSeparator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", p, err)
	}
	return home + p[1:], nil
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

func unescapePath(p string) string {
	s, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return s
}
