// Copyright © 2021 One Concern

package main

import (
	"github.com/oneconcern/butleruri/cmd/butleruri/cmd"
)

func main() {
	cmd.Execute()
}
