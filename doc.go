/*
Package butleruri provides a uniform interface to resources addressed
by URIs, across storage schemes.

Scheme-less paths and file:// URIs address the local filesystem, s3://
an object store, http:// and https:// remote web servers (with WebDAV
extensions for writes), resource:// data bundled with a program and
mem:// in-memory test stubs.

The pkg/uri package implements the locator model, pkg/resource the
backend-independent operations and the per-scheme backends live below
pkg/resource. The butleruri command exposes the same operations on the
command line.
*/
package butleruri
