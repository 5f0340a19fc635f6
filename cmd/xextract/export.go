package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xextract/internal/export"
)

var (
	exportOut      string
	exportSnapshot bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored collection to CSV and JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		posts, err := loadPosts(exportSnapshot)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Println("No posts to export")
			return nil
		}

		dir, err := outputDir(exportOut, "exports")
		if err != nil {
			return err
		}
		paths, err := export.WriteFiles(dir, time.Now(), posts)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d posts\n  %s\n  %s\n", len(posts), paths.CSV, paths.JSON)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default <cache dir>/exports)")
	exportCmd.Flags().BoolVar(&exportSnapshot, "snapshot", false, "export the latest JSON snapshot instead of the database")
	rootCmd.AddCommand(exportCmd)
}
