package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "solr-schema-sync",
	Short:        "Keep a Solr core's schema in line with the content search catalog",
	SilenceUsage: true,
	Long: `solr-schema-sync reads the live schema of a Solr core, computes the Schema API
mutations that rebuild it from the built-in field catalog and the configured
languages, and applies them in order.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// Execute is called by main.go
func Execute() error {
	return rootCmd.Execute()
}
