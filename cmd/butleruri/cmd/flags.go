// Copyright © 2021 One Concern

package cmd

import (
	"github.com/oneconcern/butleruri/pkg/logger"
	"github.com/oneconcern/butleruri/pkg/resource"
	_ "github.com/oneconcern/butleruri/pkg/resource/all" // register all backends
)

type flagsT struct {
	cp struct {
		transfer  string
		overwrite bool
	}
	ls struct {
		long      bool
		recursive bool
	}
	write struct {
		overwrite bool
	}
	root struct {
		logLevel string
		tmpDir   string
	}
}

var cliFlags flagsT

// paramsToOptions maps persistent flags to resource options
func paramsToOptions() []resource.Option {
	l := logger.MustGetLogger(cliFlags.root.logLevel)
	return []resource.Option{
		resource.WithLogger(l),
		resource.WithTmpDir(cliFlags.root.tmpDir),
	}
}

// paramsToResource resolves a command line argument to a resource
func paramsToResource(arg string) (resource.Resource, error) {
	return resource.New(arg, paramsToOptions()...)
}
