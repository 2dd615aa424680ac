package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Request a magic login link for an email address",
	Long: `Requests a one-time login link for the given email address. Open
the link (or run 'pdfshare-cli verify <token>') to obtain a JWT, then
pass it to other commands with --token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient()
		raw, _ := json.Marshal(map[string]string{"email": args[0]})
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
			c.baseURL+"/api/v1/auth/magic-link", bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return apiError(resp)
		}
		fmt.Printf("Login link requested for %s. Check your inbox.\n", args[0])
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Exchange a magic link token for a JWT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newAPIClient()
		raw, _ := json.Marshal(map[string]string{"token": args[0]})
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
			c.baseURL+"/api/v1/auth/verify", bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return apiError(resp)
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return err
		}
		fmt.Println(body.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(verifyCmd)
}
