// Copyright © 2021 One Concern

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat {uri}",
	Short: "Print the contents of a resource",
	Long: `Print the contents of the resource addressed by the URI to standard
output. The resource is streamed, not held in memory.
`,
	Example: `% butleruri cat s3://my-bucket/datasets/truth.yaml`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		res, err := paramsToResource(args[0])
		if err != nil {
			wrapFatalln("resolve resource", err)
			return
		}
		rdr, err := res.Open(ctx)
		if err != nil {
			wrapFatalln("open "+args[0], err)
			return
		}
		defer rdr.Close()

		if _, err = io.Copy(os.Stdout, rdr); err != nil {
			wrapFatalln("read "+args[0], err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
