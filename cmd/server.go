package cmd

import (
	"github.com/spf13/cobra"

	"DeckFM/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the DeckFM HTTP server",
	Long:  `Runs the DeckFM party server: HTTP API, websocket feed, import watcher and the dual-deck playback engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
