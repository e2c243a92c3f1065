// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-herald/internal/config"
	"github.com/pdiddy/preprint-herald/internal/notify"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List chats the bot has recently seen",
	Long: `Channels reads the bot's pending updates and prints every chat that appears
in them, with its numeric id. Post a message in the target channel first, then
use the printed id as notifier.channel_id.`,
	Args: cobra.NoArgs,
	RunE: runChannels,
}

func init() {
	channelsCmd.Flags().Int("limit", 100, "maximum updates to read")

	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Scope{})
	if err != nil {
		return err
	}
	if cfg.Notifier.Token == "" {
		return fmt.Errorf("%w: notifier.token", config.ErrMissing)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	t := &notify.Telegram{Client: newHTTPClient(cfg.Notifier.HTTPConfig), Config: cfg.Notifier}
	chats, err := t.Updates(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Println("No chats found. Post a message where the bot can see it and retry.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-10s  %s\n", "ID", "Type", "Name")
	for _, c := range chats {
		name := c.Title
		if c.Username != "" {
			name = "@" + c.Username
		}
		fmt.Fprintf(os.Stdout, "%-16d  %-10s  %s\n", c.ID, c.Type, name)
	}
	return nil
}
