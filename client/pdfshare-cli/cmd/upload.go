package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var uploadFolder string

var uploadCmd = &cobra.Command{
	Use:   "upload [file-path]...",
	Short: "Upload one or more PDF files",
	Long: `Uploads the given files to the shared folder. Only PDF files are
accepted; non-PDF files are rejected locally before anything is sent.
Each file is uploaded independently, so one bad file does not block
the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make(map[string][]byte, len(args))
		failed := 0
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", path, err)
				continue
			}
			// The server sniffs content too; checking here saves the round trip.
			if !mimetype.Detect(content).Is("application/pdf") {
				failed++
				fmt.Fprintf(os.Stderr, "FAILED  %s: not a PDF file\n", path)
				continue
			}
			files[filepath.Base(path)] = content
		}

		if len(files) > 0 {
			outcomes, err := newAPIClient().Upload(context.Background(), uploadFolder, files)
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if o.Error != "" {
					failed++
					fmt.Fprintf(os.Stderr, "FAILED  %s: %s\n", o.Filename, o.Error)
					continue
				}
				fmt.Printf("OK      %s -> %s\n", o.Filename, o.Path)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to upload", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFolder, "folder", "current", "destination folder")
}
