package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question string `json:"question"`
}

// MatchedChunk represents one retrieved chunk in an answer.
type MatchedChunk struct {
	Snippet  string  `json:"snippet"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Answer     string         `json:"answer"`
	IsRelevant bool           `json:"is_relevant"`
	Matched    []MatchedChunk `json:"matched"`
	Trace      []string       `json:"trace,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <session-id> <question>",
		Short: "Ask a question",
		Long:  "Asks a question against the session's document. Off-document questions are answered from web search or general knowledge.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], args[1], verbose, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show matched chunks and routing trace")

	return cmd
}

func runAsk(cmd *cobra.Command, sessionID, question string, verbose, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/sessions/"+sessionID+"/ask", AskRequest{Question: question})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	if verbose {
		fmt.Printf("\nAnswered from document: %t\n", askResp.IsRelevant)
		for i, m := range askResp.Matched {
			fmt.Printf("%d. [%s] (distance %.4f)\n   %s\n", i+1, m.Source, m.Distance, m.Snippet)
		}
		if len(askResp.Trace) > 0 {
			fmt.Println("\nTrace:")
			for _, line := range askResp.Trace {
				fmt.Printf("  - %s\n", line)
			}
		}
		if len(askResp.Matched) > 0 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
