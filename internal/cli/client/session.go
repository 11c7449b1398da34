package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SessionResponse represents the session creation API response.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionCmd creates the session command.
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start a new conversation session",
		Long:  "Creates a new conversation session and prints its ID.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSession(cmd, outputJSON)
		},
	}

	return cmd
}

func runSession(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/sessions", nil)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	var sessionResp SessionResponse
	if err := json.Unmarshal(resp.Data, &sessionResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(sessionResp, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Println(sessionResp.SessionID)
	}

	return nil
}
