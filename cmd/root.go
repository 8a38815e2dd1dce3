package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"DeckFM/server"
)

var rootCmd = &cobra.Command{
	Use:   "deckfm",
	Short: "DeckFM is a self-hosted auto-DJ party server.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting DeckFM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
