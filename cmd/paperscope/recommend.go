package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/paperscope/paperscope/internal/semantic"
)

var recommendLimit int

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "l", 10, "Maximum number of results")
}

// RecommendResponse is the response for the recommend command.
type RecommendResponse struct {
	LibraryIDs []int64       `json:"library_ids"`
	Results    []PaperResult `json:"results"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <paper-id>...",
	Short: "Recommend papers based on a set of saved papers",
	Long: `Average the abstract vectors of the given papers and rank everything
else against that profile. The given papers are never recommended
back. Papers without an embedding contribute nothing to the profile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	libraryIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			exitWithError(ExitError, "invalid paper id %q", arg)
		}
		libraryIDs = append(libraryIDs, id)
	}

	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	cache := mustLoadCache(ctx, cfg, db)
	engine := semantic.NewEngine(cache, newProvider(cfg), db, nil)

	ids := engine.RecommendFor(ctx, libraryIDs, recommendLimit)
	papers, err := db.PapersByIDs(ids)
	if err != nil {
		exitWithError(ExitDataError, "loading results: %v", err)
	}

	resp := RecommendResponse{LibraryIDs: libraryIDs, Results: toResults(papers)}
	if humanOutput {
		if len(resp.Results) == 0 {
			fmt.Println("No recommendations; the given papers may not be embedded yet")
			return nil
		}
		printResultsHuman(resp.Results)
		return nil
	}
	return outputJSON(resp)
}
