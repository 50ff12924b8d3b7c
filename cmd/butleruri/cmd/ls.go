// Copyright © 2021 One Concern

package cmd

import (
	"context"

	"github.com/docker/go-units"
	"github.com/oneconcern/butleruri/pkg/resource"
	"github.com/oneconcern/butleruri/pkg/uri"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls {uri}",
	Short: "List a directory-like resource",
	Long: `List the entries below a directory-like resource. Only backends with
directory semantics (local filesystem, s3) support listing.
`,
	Example: `% butleruri ls --long s3://my-bucket/datasets/`,
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

		top := true
		err = resource.Walk(ctx, res, func(dir uri.URI, dirs, files []string) error {
			if !top && !cliFlags.ls.recursive {
				return nil
			}
			top = false
			for _, d := range dirs {
				infoLogger.Println(dir.Join(d))
			}
			for _, f := range files {
				child := dir.Join(f)
				if !cliFlags.ls.long {
					infoLogger.Println(child)
					continue
				}
				entry, eerr := resource.Open(child, paramsToOptions()...)
				if eerr != nil {
					return eerr
				}
				size, eerr := entry.Size(ctx)
				if eerr != nil {
					return eerr
				}
				infoLogger.Printf("%-10s %s", units.HumanSize(float64(size)), child)
			}
			return nil
		})
		if err != nil {
			wrapFatalln("list "+args[0], err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&cliFlags.ls.long, "long", "l", false,
		"long listing with humanized sizes")
	lsCmd.Flags().BoolVarP(&cliFlags.ls.recursive, "recursive", "r", false,
		"descend into sub-directories")
}
