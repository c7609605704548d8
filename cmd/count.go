package cmd

import (
	"github.com/huangsam/reddot/core"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/spf13/cobra"
)

// countCmd counts red dots in every TIFF below the root directory.
var countCmd = &cobra.Command{
	Use:   "count [root]",
	Short: "Count red dots per frame and write a sorted CSV per directory.",
	Long: `Walk the root directory recursively and count red pixels in every frame of every .tif/.tiff file.

For each directory holding at least one TIFF file, the per-file totals are ordered by the
timestamp and sequence number in the file names and written as red_dot_counts_sorted.csv
next to the images, with the hours elapsed since the earliest image.

File names are expected to look like 003_20240115_083000.tif (number, date, time).
Names with fewer parts are still counted, but without a timestamp.

Examples:
  # Count everything below the current directory
  reddot count

  # Collect all CSVs in one place instead of next to the images
  reddot count ./plates --output-dir ./results

  # Use a tighter red definition
  reddot count ./plates --hue-ranges 0-8,170-180 --min-saturation 120

  # Load the red definition from a TOML profile
  reddot count ./plates --ranges-file reddot-ranges.toml

  # Print the run summary as JSON and keep Prometheus metrics
  reddot count ./plates --output json --metrics-file reddot.prom`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCount(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run red dot count", err)
		}
	},
}
