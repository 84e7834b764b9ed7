package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"shellci/internal/security"
)

var (
	flagServerURL string
	flagSecret    string
)

// eventCmd delivers a synthetic repository event to a running server, the
// way the hosting platform's webhook would.
var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Interact with a shellci server",
}

var eventSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an event to the server's webhook endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(eventFromFlags())
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(cmd.Context(),
			http.MethodPost, flagServerURL+"/events", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if flagSecret != "" {
			req.Header.Set("X-Hub-Signature-256", security.SignWebhookBody(flagSecret, body))
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("send event: %w", err)
		}
		defer resp.Body.Close()

		out, _ := io.ReadAll(resp.Body)
		fmt.Printf("server response (%s): %s", resp.Status, out)
		return nil
	},
}

func init() {
	eventSendCmd.Flags().StringVar(&flagServerURL, "server", "http://localhost:8080", "server base URL")
	eventSendCmd.Flags().StringVar(&flagSecret, "secret", "", "webhook HMAC secret")
	addEventFlags(eventSendCmd)
	eventCmd.AddCommand(eventSendCmd)
}
