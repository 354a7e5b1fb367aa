package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperscope/paperscope/internal/ingest"
)

func init() {
	rootCmd.AddCommand(embedCmd)
}

// EmbedResponse is the response for the embed command.
type EmbedResponse struct {
	Pending  int    `json:"pending"`
	Embedded int    `json:"embedded"`
	Model    string `json:"model"`
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed stored papers that have no vector yet",
	Long: `Backfill embeddings for papers that were fetched without one, for
example after a fetch run with --no-embed or while Ollama was down.
Requires a running Ollama instance with the configured model.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	db := mustOpenStore(cfg)
	defer db.Close()

	provider := newProvider(cfg)
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama is not running\n\nStart Ollama with 'ollama serve' and try again.")
	}
	if ok, err := provider.HasModel(ctx); err == nil && !ok {
		exitWithError(ExitDataError, "model %q not found in Ollama\n\nPull it with 'ollama pull %s'.", provider.ModelName(), provider.ModelName())
	}

	pipe := ingest.New(nil, db, provider, nil)
	if humanOutput {
		pipe.SetProgressReporter(newProgressBar("Embedding"))
	}

	stats, err := pipe.Backfill(ctx)
	if err != nil {
		exitWithError(ExitError, "embedding papers: %v", err)
	}

	resp := EmbedResponse{
		Pending:  stats.Fetched,
		Embedded: stats.Embedded,
		Model:    provider.ModelName(),
	}
	if humanOutput {
		if resp.Pending == 0 {
			fmt.Println("All papers already embedded")
			return nil
		}
		fmt.Printf("Embedded %d of %d pending papers with %s\n", resp.Embedded, resp.Pending, resp.Model)
		return nil
	}
	return outputJSON(resp)
}
