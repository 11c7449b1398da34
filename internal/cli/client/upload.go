package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// UploadResponse represents the document upload API response.
type UploadResponse struct {
	Document   string `json:"document"`
	ChunkCount int    `json:"chunk_count"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <session-id> <file.pdf>",
		Short: "Upload a PDF into a session",
		Long:  "Uploads a PDF document and indexes it for question answering, replacing any previous document in the session.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], args[1], outputJSON)
		},
	}

	return cmd
}

func runUpload(cmd *cobra.Command, sessionID, filePath string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.PostFile("/sessions/"+sessionID+"/document", "file", filePath)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(resp.Data, &uploadResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(uploadResp, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Indexed %s (%d chunks)\n", uploadResp.Document, uploadResp.ChunkCount)
	}

	return nil
}
