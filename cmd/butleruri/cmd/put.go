// Copyright © 2021 One Concern

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:     "put {uri}",
	Short:   "Write standard input to a resource",
	Example: `% butleruri put --overwrite s3://my-bucket/datasets/truth.yaml < truth.yaml`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		res, err := paramsToResource(args[0])
		if err != nil {
			wrapFatalln("resolve resource", err)
			return
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			wrapFatalln("read standard input", err)
			return
		}
		if err = res.Write(ctx, data, cliFlags.write.overwrite); err != nil {
			wrapFatalln("write "+args[0], err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().BoolVar(&cliFlags.write.overwrite, "overwrite", false,
		"overwrite the destination when it exists")
}
