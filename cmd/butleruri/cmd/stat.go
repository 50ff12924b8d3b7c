// Copyright © 2021 One Concern

package cmd

import (
	"context"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat {uri}",
	Short: "Report on a resource",
	Long: `Report the parsed form of the URI, whether the resource exists and
its size.
`,
	Example: `% butleruri stat https://example.org/datasets/truth.yaml`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		res, err := paramsToResource(args[0])
		if err != nil {
			wrapFatalln("resolve resource", err)
			return
		}
		u := res.URI()
		infoLogger.Printf("uri:       %s", u)
		infoLogger.Printf("scheme:    %s", u.Scheme())
		infoLogger.Printf("path:      %s", u.UnquotedPath())
		infoLogger.Printf("directory: %t", u.IsDir())

		exists, err := res.Exists(ctx)
		if err != nil {
			wrapFatalln("stat "+args[0], err)
			return
		}
		infoLogger.Printf("exists:    %t", exists)
		if !exists || u.IsDir() {
			return
		}
		size, err := res.Size(ctx)
		if err != nil {
			wrapFatalln("size "+args[0], err)
			return
		}
		infoLogger.Printf("size:      %s (%d bytes)", units.HumanSize(float64(size)), size)
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
