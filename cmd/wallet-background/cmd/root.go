package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wallet-background",
	Short: "Wallet background request mediation service",
	Long: `The background half of a browser-extension wallet: it receives
provider requests from page contexts, gates them on lock state, routes
them through per-method handlers and mediates user approvals.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
