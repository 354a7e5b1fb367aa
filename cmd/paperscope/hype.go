package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hypeLimit int

func init() {
	rootCmd.AddCommand(hypeCmd)

	hypeCmd.Flags().IntVarP(&hypeLimit, "limit", "l", 10, "Maximum number of papers")
}

// HypeResult is one row of the hype listing.
type HypeResult struct {
	PaperResult
	Saves int `json:"saves"`
}

// HypeResponse is the response for the hype command.
type HypeResponse struct {
	Results []HypeResult `json:"results"`
}

var hypeCmd = &cobra.Command{
	Use:   "hype",
	Short: "List the most-saved papers",
	Long: `List papers ranked by how many users saved them to their library,
most saved first. Ties resolve to the lower paper id.`,
	Args: cobra.NoArgs,
	RunE: runHype,
}

func runHype(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	entries, err := db.TopSaved(hypeLimit)
	if err != nil {
		exitWithError(ExitDataError, "loading hype list: %v", err)
	}

	ids := make([]int64, 0, len(entries))
	saves := make(map[int64]int, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PaperID)
		saves[e.PaperID] = e.Saves
	}
	papers, err := db.PapersByIDs(ids)
	if err != nil {
		exitWithError(ExitDataError, "loading papers: %v", err)
	}

	resp := HypeResponse{Results: make([]HypeResult, 0, len(papers))}
	for _, r := range toResults(papers) {
		resp.Results = append(resp.Results, HypeResult{PaperResult: r, Saves: saves[r.ID]})
	}
	if humanOutput {
		if len(resp.Results) == 0 {
			fmt.Println("No saved papers yet")
			return nil
		}
		for i, r := range resp.Results {
			fmt.Printf("%d. [%s] %s (%d saves)\n", i+1, r.ArxivID, truncateString(r.Title, SearchTitleMaxLen), r.Saves)
		}
		return nil
	}
	return outputJSON(resp)
}
