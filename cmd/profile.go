package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/spf13/cobra"
)

// profileCmd groups range profile commands.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage red range profiles",
	Long: `Manage TOML range profiles that define which pixels count as red.

A profile holds the hue ranges and the saturation and value bounds. Pass it to
'reddot count --ranges-file' to replace the individual range flags.

Subcommands:
  init - Write the default profile as a starting point`,
}

// profileInitCmd writes the default range profile.
var profileInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default red range profile to a TOML file",
	Long: `Write the default red definition (hue 0-10 and 160-180, saturation and value 100-255)
to a TOML file that can be edited and passed to --ranges-file.

Examples:
  # Write reddot-ranges.toml in the current directory
  reddot profile init

  # Write to a custom path, replacing any existing file
  reddot profile init config/ranges.toml --force`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := contract.DefaultRangesFile
		if len(args) == 1 {
			path = args[0]
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			contract.LogFatal("Cannot write range profile", fmt.Errorf("%s already exists, use --force to overwrite", path))
		}

		if err := contract.SaveRangeProfile(path, contract.DefaultRangeProfile()); err != nil {
			contract.LogFatal("Cannot write range profile", err)
		}
		fmt.Printf("✅ Range profile written: %s\n", path)
	},
}
