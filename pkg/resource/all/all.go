// Copyright © 2021 One Concern

// Package all registers every built-in backend with the resource
// registry. Import it for side effects:
//
//	import _ "github.com/oneconcern/butleruri/pkg/resource/all"
package all

import (
	_ "github.com/oneconcern/butleruri/pkg/resource/localfs"
	_ "github.com/oneconcern/butleruri/pkg/resource/mem"
	_ "github.com/oneconcern/butleruri/pkg/resource/pkgres"
	_ "github.com/oneconcern/butleruri/pkg/resource/sthree"
	_ "github.com/oneconcern/butleruri/pkg/resource/web"
)
