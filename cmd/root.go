package cmd

import (
	"fmt"
	"log"
	"os"

	"VibeFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vibefm_server",
	Short: "VibeFM turns detected moods into vibes and playlists.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting VibeFM server...")
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
