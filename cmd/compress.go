package cmd

import (
	"github.com/huangsam/reddot/core"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/spf13/cobra"
)

// compressCmd rewrites TIFF files with lossless compression.
var compressCmd = &cobra.Command{
	Use:   "compress [dir]",
	Short: "Re-encode the TIFF files of a directory with lossless compression.",
	Long: `Rewrite every .tif/.tiff file directly inside dir as <name>_compressed.tif, keeping all frames.

Pixels are preserved exactly, so counts on the compressed copies match the originals.
Subdirectories are not visited.

Examples:
  # Compress into ./plates/compressed
  reddot compress ./plates

  # Choose the output directory
  reddot compress ./plates --compress-output /archive/plates`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompress(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compress images", err)
		}
	},
}
