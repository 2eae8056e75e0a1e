package cmd

import (
	"context"
	"fmt"
	"log"

	"VibeFM/config"
	"VibeFM/db"

	"github.com/spf13/cobra"
)

var databaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Test the database connection",
	Long:  `Connect to whichever database backend the configuration selects and print its health report.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx := context.Background()

		if cfg.MongoURI != "" {
			fmt.Printf("MongoDB configured: %s (database %s)\n", cfg.MongoURI, cfg.MongoDatabase)
		} else {
			fmt.Printf("No MongoDB URI configured, using JSON database in %s\n", cfg.DataDir)
		}

		svc, err := db.NewService(ctx, cfg, nil)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer svc.Disconnect(ctx)

		health := svc.GetHealth(ctx)
		fmt.Printf("\nBackend: %s\n", health.Type)
		fmt.Printf("Status: %s\n", health.Status)
		if health.Error != "" {
			fmt.Printf("Error: %s\n", health.Error)
		}
		fmt.Printf("Analyses: %d\n", health.TotalAnalyses)
		fmt.Printf("Users: %d\n", health.TotalUsers)
		if health.LastAnalysis != nil {
			fmt.Printf("Last analysis: %s\n", health.LastAnalysis.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	rootCmd.AddCommand(databaseCmd)
}
