package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [storage-path]",
	Short: "Get a time-limited download link for a file",
	Long: `Prints a signed download link for the file at the given storage
path. The link works in any browser until it expires; no token is
needed to use it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := newAPIClient().SignedURL(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
