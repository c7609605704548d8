// Package cmd defines the command-line interface for reddot.
package cmd

import (
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the profile subcommands to the parent profile command
	profileCmd.AddCommand(profileInitCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string (SQLite file path, or user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of countCmd to Viper
	countCmd.Flags().String("output-dir", "", "Write all summary CSVs into this directory as count_<timestamp>.csv")
	countCmd.Flags().String("name-fallback", string(schema.FileFallback), "Handling of names without timestamps: file or batch")
	countCmd.Flags().String("hue-ranges", schema.DefaultHueRanges, "Comma-separated inclusive hue ranges on the 0-180 scale")
	countCmd.Flags().Int("min-saturation", schema.DefaultSatMin, "Minimum saturation (0-255)")
	countCmd.Flags().Int("max-saturation", 255, "Maximum saturation (0-255)")
	countCmd.Flags().Int("min-value", schema.DefaultValMin, "Minimum value (0-255)")
	countCmd.Flags().Int("max-value", 255, "Maximum value (0-255)")
	countCmd.Flags().String("ranges-file", "", "TOML range profile that replaces the hue/saturation/value flags")
	countCmd.Flags().String("metrics-file", "", "Write Prometheus metrics for the run to this textfile")
	if err := viper.BindPFlags(countCmd.Flags()); err != nil {
		contract.LogFatal("Error binding count flags", err)
	}

	// Bind all flags of compressCmd to Viper
	compressCmd.Flags().String("compression", string(schema.DeflateCompression), "TIFF compression: deflate or none")
	compressCmd.Flags().String("compress-output", "", "Directory for compressed copies (default <dir>/compressed)")
	if err := viper.BindPFlags(compressCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compress flags", err)
	}

	// Flags of profileInitCmd are read directly, they have no config file equivalent
	profileInitCmd.Flags().Bool("force", false, "Overwrite an existing range profile")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
