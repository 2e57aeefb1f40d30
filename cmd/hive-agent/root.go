package main

import (
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hive-agent",
		Short:         "Conversational agent for Hive metastore administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the configuration file")

	root.AddCommand(newChatCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newIngestCmd())
	return root
}
