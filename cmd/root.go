// Package cmd defines the url-insights command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url-insights",
		Short: "Structured article extraction API",
		Long: `url-insights serves an HTTP API that turns a URL into structured
article data: title, body text, publication date, lead image, language,
summary, keywords, and sentiment. Results are cached on disk and served
with conditional-request support.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
