// Command server runs the HomeBase API and its recurring-expense scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd runs serve when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "homebase",
	Short: "Household chores and shared expenses API",
	Long: `HomeBase serves the household REST API and regenerates recurring
expenses in the background.

Configuration is read from config.yaml (or --config), a .env file and
HOMEBASE_* environment variables, e.g. HOMEBASE_SERVER_PORT=9000.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, tickCmd, vapidCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
