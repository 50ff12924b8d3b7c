// Copyright © 2021 One Concern

package resource

import (
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Options collects the optional knobs shared by all backends. Backends
// pick the fields relevant to them and ignore the rest.
type Options struct {
	// Logger used by backends. Defaults to a nop logger.
	Logger *zap.Logger

	// Fs overrides the filesystem used by the local backend. Defaults
	// to the OS filesystem.
	Fs afero.Fs

	// HTTPClient overrides the client used by the http backend.
	HTTPClient *http.Client

	// AWSConfig overrides the configuration of the s3 backend, e.g.
	// to point it at a non-AWS endpoint with static credentials.
	AWSConfig *aws.Config

	// TmpDir is where temporary local copies of remote resources are
	// placed. Defaults to BUTLERURI_TEST_TMP or the system temp dir.
	TmpDir string
}

// Option is a functor to pass optional parameters to New
type Option func(*Options)

// WithLogger specifies a logger for backend operations
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithFs specifies the filesystem backing local resources
func WithFs(fs afero.Fs) Option {
	return func(o *Options) {
		o.Fs = fs
	}
}

// WithHTTPClient specifies the client used for http(s) resources
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = c
	}
}

// WithAWSConfig specifies the AWS configuration used for s3 resources
func WithAWSConfig(cfg *aws.Config) Option {
	return func(o *Options) {
		o.AWSConfig = cfg
	}
}

// WithTmpDir specifies where temporary local copies are placed
func WithTmpDir(dir string) Option {
	return func(o *Options) {
		o.TmpDir = dir
	}
}

func defaultOptions(opts []Option) *Options {
	o := &Options{
		Logger: zap.NewNop(),
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}
