// Copyright © 2021 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/uri"
	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir {uri}",
	Short: "Create a directory-like resource",
	Long: `Create the directory addressed by the URI, including missing
parents. The argument is interpreted as a directory whether or not it
ends with a separator.
`,
	Example: `% butleruri mkdir s3://my-bucket/datasets/2021/`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		u, err := uri.Parse(args[0], uri.ForceDirectory())
		if err != nil {
			wrapFatalln("parse "+args[0], err)
			return
		}
		res, err := resource.Open(u, paramsToOptions()...)
		if err != nil {
			wrapFatalln("resolve resource", err)
			return
		}
		if err = res.Mkdir(ctx); err != nil {
			wrapFatalln("mkdir "+args[0], err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
