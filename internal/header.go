// Package internal has console headers shared by the commands.
package internal

import (
	"fmt"
	"os"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// LogRunHeader prints a concise header before a count run.
func LogRunHeader(cfg *contract.Config) {
	// Line 1: where the process runs from
	fmt.Printf("📂 Working directory: %s\n", workingDir())

	// Line 2: the tree being counted
	fmt.Printf("🎯 Target root: %s\n", cfg.InputPath)

	if cfg.OutputDir != "" && !cfg.SkipCSV {
		fmt.Printf("📁 Output directory: %s\n", cfg.OutputDir)
	}
}

// LogCompressHeader prints a header before recompressing a directory.
func LogCompressHeader(inputDir, outputDir string, compression schema.Compression) {
	fmt.Printf("📂 Working directory: %s\n", workingDir())
	fmt.Printf("🗜️  Compressing: %s → %s (%s)\n", inputDir, outputDir, compression)
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return wd
}
