package cmd

import (
	"VibeFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the VibeFM HTTP server",
	Long:  `Start the VibeFM HTTP server serving the mood-analysis API and uploaded media.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
