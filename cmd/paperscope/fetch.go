package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paperscope/paperscope/internal/arxiv"
	"github.com/paperscope/paperscope/internal/embedding"
	"github.com/paperscope/paperscope/internal/ingest"
)

var (
	fetchQuery   string
	fetchMax     int
	fetchNoEmbed bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchQuery, "query", "q", "", "Arxiv search query (default from config)")
	fetchCmd.Flags().IntVarP(&fetchMax, "max", "n", 0, "Maximum papers to fetch (default from config)")
	fetchCmd.Flags().BoolVar(&fetchNoEmbed, "no-embed", false, "Store papers without embedding them")
}

// FetchResponse is the response for the fetch command.
type FetchResponse struct {
	Query    string `json:"query"`
	Fetched  int    `json:"fetched"`
	Written  int    `json:"written"`
	Embedded int    `json:"embedded"`
	Failed   int    `json:"failed"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent papers from arxiv",
	Long: `Fetch the latest papers for the configured arxiv query and store
them. New and updated papers are embedded through Ollama unless
--no-embed is given; papers that fail to embed are stored anyway and
can be embedded later with 'paperscope embed'.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	query := fetchQuery
	if query == "" {
		query = cfg.Arxiv.Query
	}
	maxResults := fetchMax
	if maxResults <= 0 {
		maxResults = cfg.Arxiv.MaxResults
	}

	db := mustOpenStore(cfg)
	defer db.Close()

	var provider embedding.Provider
	if !fetchNoEmbed {
		ollama := newProvider(cfg)
		if err := ollama.IsAvailable(ctx); err != nil {
			exitWithError(ExitDataError, "Ollama is not running\n\nStart Ollama with 'ollama serve', or pass --no-embed to fetch without embeddings.")
		}
		provider = ollama
	}

	pipe := ingest.New(arxiv.NewClient(), db, provider, nil)
	if humanOutput {
		pipe.SetProgressReporter(newProgressBar("Fetching"))
	}

	stats, err := pipe.Run(ctx, query, maxResults)
	if err != nil {
		exitWithError(ExitError, "fetching papers: %v", err)
	}

	resp := FetchResponse{
		Query:    query,
		Fetched:  stats.Fetched,
		Written:  stats.Written,
		Embedded: stats.Embedded,
		Failed:   stats.Failed,
	}
	if humanOutput {
		fmt.Printf("Fetched %d papers: %d written, %d embedded, %d failed to embed\n",
			resp.Fetched, resp.Written, resp.Embedded, resp.Failed)
		return nil
	}
	return outputJSON(resp)
}
