// Copyright © 2021 One Concern

// Package resource provides a uniform interface to read and write
// resources addressed by URIs.
//
// This package supports the following schemes:
//   - local filesystem (scheme-less paths and file://)
//   - S3 (AWS and S3-compatible endpoints)
//   - HTTP(S), with WebDAV extensions when the endpoint offers them
//   - resource:// lookup of resources bundled with a package
//   - mem:// markers for in-memory datasets
//
// Backends register themselves for a scheme at init time. Import
// github.com/oneconcern/butleruri/pkg/resource/all to enable all of
// them at once.
package resource
