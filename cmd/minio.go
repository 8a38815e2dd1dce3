package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"

	"DeckFM/config"
	"DeckFM/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO bucket inspection",
	Long:  `Checks the MinIO connection and lists the stored audio objects, optionally filtered by prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Connecting to MinIO...")

		cfg := config.Load()
		fmt.Printf("MinIO config: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection OK.")

		client := storage.GetMinioClient()
		ctx := context.Background()

		var count int
		var totalBytes int64
		for obj := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				log.Fatalf("Failed to list objects: %v", obj.Err)
			}
			fmt.Printf("  %s (%d bytes)\n", obj.Key, obj.Size)
			count++
			totalBytes += obj.Size
		}
		fmt.Printf("%d objects, %d bytes total\n", count, totalBytes)
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by prefix")
	rootCmd.AddCommand(minioCmd)
}
