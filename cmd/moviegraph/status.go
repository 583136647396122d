package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := NewClient(serverURL).Health()
		if err != nil {
			return fmt.Errorf("status check failed: %w", err)
		}
		if jsonOutput {
			printJSON(h)
			return nil
		}
		printHealth(stdout, serverURL, h)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func configured(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}

func printHealth(w io.Writer, server string, h *HealthResponse) {
	fmt.Fprintf(w, "moviegraph %s | Server: %s | Status: %s\n", h.Version, server, h.Status)
	fmt.Fprintf(w, "  Trakt: %s\n", configured(h.OriginConfigured))
	fmt.Fprintf(w, "  TMDB:  %s\n", configured(h.PosterConfigured))
	fmt.Fprintf(w, "  AI:    %s\n", configured(h.AIConfigured))
}
