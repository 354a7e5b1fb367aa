package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusResponse is the response for the status command.
type StatusResponse struct {
	DBPath          string `json:"db_path"`
	Papers          int    `json:"papers"`
	Embedded        int    `json:"embedded"`
	OllamaURL       string `json:"ollama_url"`
	Model           string `json:"model"`
	OllamaAvailable bool   `json:"ollama_available"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and embedding status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	db := mustOpenStore(cfg)
	defer db.Close()

	total, embedded, err := db.CountPapers()
	if err != nil {
		exitWithError(ExitDataError, "counting papers: %v", err)
	}

	provider := newProvider(cfg)
	resp := StatusResponse{
		DBPath:          cfg.DBPath,
		Papers:          total,
		Embedded:        embedded,
		OllamaURL:       cfg.Ollama.URL,
		Model:           provider.ModelName(),
		OllamaAvailable: provider.IsAvailable(ctx) == nil,
	}
	if humanOutput {
		fmt.Printf("Store:    %s\n", resp.DBPath)
		fmt.Printf("Papers:   %d (%d embedded)\n", resp.Papers, resp.Embedded)
		fmt.Printf("Ollama:   %s (%s)", resp.OllamaURL, resp.Model)
		if resp.OllamaAvailable {
			fmt.Println(" - available")
		} else {
			fmt.Println(" - not running")
		}
		return nil
	}
	return outputJSON(resp)
}
