package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpDelivery "github.com/nutrisnap/backend/internal/delivery/http"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", httpDelivery.ServiceName, httpDelivery.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
