package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperscope/paperscope/internal/pdftext"
	"github.com/paperscope/paperscope/internal/semantic"
)

var (
	searchLimit int
	searchPDF   string
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchPDF, "pdf", "", "Use the text of a PDF file as the query")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []PaperResult `json:"results"`
}

var searchCmd = &cobra.Command{
	Use:   "search [query terms...]",
	Short: "Search papers by meaning",
	Long: `Search stored papers by embedding the query and ranking abstracts by
cosine similarity. When no paper has an embedding yet, or Ollama is
unreachable, results fall back to a title keyword match.

With --pdf the query is taken from the first pages of a PDF file
instead of the command line, which finds papers related to one you are
reading.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	query := strings.Join(args, " ")
	if searchPDF != "" {
		text, err := pdftext.QueryText(searchPDF)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", searchPDF, err)
		}
		query = text
	}
	if query == "" {
		exitWithError(ExitError, "no query given; pass search terms or --pdf")
	}

	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	cache := mustLoadCache(ctx, cfg, db)
	engine := semantic.NewEngine(cache, newProvider(cfg), db, nil)

	ids, err := engine.Search(ctx, query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	papers, err := db.PapersByIDs(ids)
	if err != nil {
		exitWithError(ExitDataError, "loading results: %v", err)
	}

	resp := SearchResponse{Query: query, Results: toResults(papers)}
	if searchPDF != "" {
		resp.Query = searchPDF
	}
	if humanOutput {
		if len(resp.Results) == 0 {
			fmt.Println("No results")
			return nil
		}
		printResultsHuman(resp.Results)
		return nil
	}
	return outputJSON(resp)
}
