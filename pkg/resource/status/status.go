// Copyright © 2021 One Concern

// Package status declares error constants returned by
// implementations of the Resource interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/resource and one
// of its implementations.
package status

import "github.com/oneconcern/butleruri/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by resource

	// ErrNotExists indicates that the addressed resource does not exist on its backend
	ErrNotExists = errors.New("resource doesn't exist")

	// ErrNotFound indicates that the backend API call did not find the target resource
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates that you don't provided correct credentials to the API
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the backend API forbids access to the target resource
	ErrForbidden = errors.New("forbidden")

	// ErrNotSupported indicates that the backend does not support this operation
	ErrNotSupported = errors.New("not supported")

	// ErrExists indicates that the resource already exists and cannot be overridden
	ErrExists = errors.New("exists already")

	// ErrInvalidResource indicates that the resource has an invalid name
	ErrInvalidResource = errors.New("invalid resource name")

	// ErrNotDirectory indicates a directory operation on a file-like URI
	ErrNotDirectory = errors.New("not a directory-like URI")

	// ErrUnsupportedTransfer indicates a transfer mode the backend cannot honor
	ErrUnsupportedTransfer = errors.New("unsupported transfer mode")

	// ErrStorageAPI indicates any other backend API error
	ErrStorageAPI = errors.New("storage API error")
)
