// Copyright © 2021 One Concern

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm {uri}",
	Short:   "Remove a resource",
	Example: `% butleruri rm s3://my-bucket/datasets/stale.yaml`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		res, err := paramsToResource(args[0])
		if err != nil {
			wrapFatalln("resolve resource", err)
			return
		}
		if err = res.Remove(ctx); err != nil {
			wrapFatalln("remove "+args[0], err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
