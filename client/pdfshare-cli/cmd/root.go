package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "pdfshare-cli",
	Short: "A CLI client for the PDF sharing service",
	Long: `A command-line interface for uploading, listing, deleting and
downloading shared PDF files. Without a token all operations run
anonymously; pass --token to work with your own files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the file service")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "JWT for owner-scoped operations (falls back to PDFSHARE_TOKEN, omit for anonymous)")
}
