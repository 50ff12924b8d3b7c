// Copyright © 2021 One Concern

package cmd

import (
	"context"

	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/spf13/cobra"
)

var cpCmd = &cobra.Command{
	Use:   "cp {source-uri} {dest-uri}",
	Short: "Transfer a resource",
	Long: `Transfer the source resource to the destination, possibly across
schemes. A destination ending with a separator is treated as a
directory and the source base name is appended.

The transfer mode defaults to "auto": remote sources are copied, local
sources are hard linked when source and destination live on the local
filesystem (falling back to a symbolic link across devices).
`,
	Example: `% butleruri cp --transfer copy ./truth.yaml s3://my-bucket/datasets/truth.yaml`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		mode, err := resource.ParseTransferMode(cliFlags.cp.transfer)
		if err != nil {
			wrapFatalln("transfer mode", err)
			return
		}

		src, err := paramsToResource(args[0])
		if err != nil {
			wrapFatalln("resolve source", err)
			return
		}
		dest, err := paramsToResource(args[1])
		if err != nil {
			wrapFatalln("resolve destination", err)
			return
		}
		if dest.URI().IsDir() {
			if dest, err = resource.Open(dest.URI().Join(src.URI().Basename()), paramsToOptions()...); err != nil {
				wrapFatalln("resolve destination", err)
				return
			}
		}

		if err = dest.TransferFrom(ctx, src, mode, cliFlags.cp.overwrite); err != nil {
			wrapFatalln("transfer", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
	cpCmd.Flags().StringVar(&cliFlags.cp.transfer, "transfer", "auto",
		"transfer mode: auto, copy, move, link, symlink, hardlink or relsymlink")
	cpCmd.Flags().BoolVar(&cliFlags.cp.overwrite, "overwrite", false,
		"overwrite the destination when it exists")
}
