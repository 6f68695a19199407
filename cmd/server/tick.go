package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// tickCmd runs a single scheduler pass, for use from an external cron.
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Regenerate due recurring expenses once and exit",
	RunE:  runTick,
}

func runTick(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.scheduler.RunOnce(cmd.Context(), time.Now().UTC())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
