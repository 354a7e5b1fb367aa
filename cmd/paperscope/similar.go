package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paperscope/paperscope/internal/paper"
	"github.com/paperscope/paperscope/internal/semantic"
)

var similarLimit int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarLimit, "limit", "l", 10, "Maximum number of results")
}

// SimilarResponse is the response for the similar command.
type SimilarResponse struct {
	Paper   PaperResult   `json:"paper"`
	Results []PaperResult `json:"results"`
}

var similarCmd = &cobra.Command{
	Use:   "similar <paper-id>",
	Short: "List papers most similar to a stored paper",
	Long: `Rank every embedded paper against the given paper's abstract vector
and list the closest matches. The paper itself is excluded from the
results. Papers without an embedding cannot be used as the anchor.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paperID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitWithError(ExitError, "invalid paper id %q", args[0])
	}

	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	anchor, err := db.PaperByID(paperID)
	if err != nil {
		exitWithError(ExitDataError, "paper %d not found", paperID)
	}

	cache := mustLoadCache(ctx, cfg, db)
	engine := semantic.NewEngine(cache, newProvider(cfg), db, nil)

	ids := engine.SimilarTo(ctx, paperID, similarLimit)
	if len(ids) == 0 && !cache.Current().Contains(paperID) {
		exitWithError(ExitDataError, "paper %d has no embedding; run 'paperscope embed' first", paperID)
	}
	papers, err := db.PapersByIDs(ids)
	if err != nil {
		exitWithError(ExitDataError, "loading results: %v", err)
	}

	resp := SimilarResponse{
		Paper:   toResults([]paper.Paper{*anchor})[0],
		Results: toResults(papers),
	}
	if humanOutput {
		fmt.Printf("Papers similar to [%s] %s:\n\n", resp.Paper.ArxivID, truncateString(resp.Paper.Title, SearchTitleMaxLen))
		printResultsHuman(resp.Results)
		return nil
	}
	return outputJSON(resp)
}
