package cmd

import (
	"context"
	"fmt"
	"log"

	"VibeFM/config"
	"VibeFM/storage"

	"github.com/spf13/cobra"
)

var (
	storageStats   bool
	storageCleanup int
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the active storage backend",
	Long:  `Probe the configured storage backend, list stored files, show usage statistics or run a cleanup sweep.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx := context.Background()

		svc, err := storage.NewService(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		fmt.Printf("Active storage backend: %s\n", svc.Type())

		if storageCleanup > 0 {
			fmt.Printf("\nDeleting files older than %d days...\n", storageCleanup)
			deleted, err := svc.CleanupOldFiles(ctx, storageCleanup)
			if err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
			fmt.Printf("Deleted %d files.\n", deleted)
			return
		}

		if storageStats {
			stats, err := svc.GetStorageStats(ctx)
			if err != nil {
				log.Fatalf("Failed to compute stats: %v", err)
			}
			fmt.Printf("\nFiles: %d\n", stats.TotalFiles)
			fmt.Printf("Total size: %s\n", storage.FormatFileSize(stats.TotalSize))
			fmt.Printf("Average size: %s\n", storage.FormatFileSize(int64(stats.AverageFileSize)))
			if stats.OldestFile != nil {
				fmt.Printf("Oldest file: %s\n", stats.OldestFile)
			}
			if stats.NewestFile != nil {
				fmt.Printf("Newest file: %s\n", stats.NewestFile)
			}
			return
		}

		files, err := svc.ListFiles(ctx)
		if err != nil {
			log.Fatalf("Failed to list files: %v", err)
		}
		fmt.Printf("\n%d files:\n", len(files))
		for _, f := range files {
			fmt.Printf("  %s  %s  %s\n", f.Filename, storage.FormatFileSize(f.Size), f.CreatedAt.Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)

	storageCmd.Flags().BoolVarP(&storageStats, "stats", "s", false, "Show storage usage statistics")
	storageCmd.Flags().IntVarP(&storageCleanup, "cleanup", "c", 0, "Delete files older than the given number of days")

	storageCmd.Example = `  # List stored files
  vibefm_server storage

  # Show usage statistics
  vibefm_server storage -s

  # Delete files older than 30 days
  vibefm_server storage -c 30`
}
