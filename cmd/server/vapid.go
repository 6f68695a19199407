package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/homebase/internal/notify"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair for web push",
	Long: `Generate a VAPID key pair. Put the output in the environment or in
config.yaml under push.vapid_public_key and push.vapid_private_key.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HOMEBASE_PUSH_VAPID_PUBLIC_KEY=%s\nHOMEBASE_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return nil
	},
}
