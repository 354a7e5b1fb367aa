package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/paperscope/paperscope/internal/ingest"
)

// newProgressBar returns a reporter that renders a terminal progress
// bar. The bar is created lazily on the first update, once the total is
// known.
func newProgressBar(description string) ingest.ProgressReporter {
	var bar *progressbar.ProgressBar
	return ingest.ProgressFunc(func(current, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		_ = bar.Set(current)
	})
}
