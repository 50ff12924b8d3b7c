// Copyright © 2021 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "butleruri",
	Short: "Manipulate resources addressed by URIs",
	Long: `Butleruri manipulates resources addressed by URIs, with a uniform
interface across storage schemes.

Plain paths and file:// URIs address the local filesystem, s3:// an
object store, http:// and https:// remote web servers (writes require
WebDAV support on the endpoint), and resource:// data bundled with the
program.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cliFlags.root.logLevel, "loglevel", "info",
		"log level for butleruri operations (info, debug or none)")
	rootCmd.PersistentFlags().StringVar(&cliFlags.root.tmpDir, "tmp", "",
		"directory for temporary local copies of remote resources")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("loglevel", "info")
	if os.Getenv("BUTLERURI_CONFIG") != "" {
		// Use config file from the flag.
		viper.SetConfigFile(os.Getenv("BUTLERURI_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.butleruri")
		viper.AddConfigPath("/etc/butleruri")
		viper.SetConfigName("butleruri")
	}

	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	if !rootCmd.PersistentFlags().Changed("loglevel") {
		cliFlags.root.logLevel = viper.GetString("loglevel")
	}
	if cliFlags.root.tmpDir == "" {
		cliFlags.root.tmpDir = viper.GetString("tmp")
	}
}
