package outwriter

import (
	"os"

	"github.com/huangsam/reddot/internal/contract"
	"golang.org/x/term"
)

// GetMaxTablePathWidth calculates the maximum width for the directory and file columns
// in table output based on terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Conservative default for narrow terminals and CI
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Fixed columns: Datetime, Number, Red Dots, Hours and Frames with borders/padding
	baseWidth := 21 + 10 + 12 + 10 + 10

	// Table borders, separators and padding
	baseWidth += 12

	// Directory and file columns share what is left
	available := (termWidth - baseWidth) / 2
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}
