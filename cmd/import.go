package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"DeckFM/config"
	"DeckFM/core/library"
	"DeckFM/db"
	"DeckFM/logger"
	"DeckFM/repository"
	"DeckFM/storage"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "One-shot library import",
	Long:  `Scans the import directory once, uploads new audio files to MinIO and runs the offline analyzers. Exits when every queued file is processed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if importDir != "" {
			cfg.ImportDir = importDir
		}

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
		})

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		importer := library.NewImporter(cfg, repository.NewMySQLTrackRepository())
		importer.Start(cfg.AnalysisWorkers)

		count, err := importer.ScanOnce(context.Background())
		if err != nil {
			log.Fatalf("Import scan failed: %v", err)
		}

		// Stop drains the analysis queue before returning.
		importer.Stop()
		fmt.Printf("Imported %d files from %s\n", count, cfg.ImportDir)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importDir, "dir", "d", "", "directory to import (defaults to IMPORT_DIR)")
	rootCmd.AddCommand(importCmd)
}
