package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/reddot/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 2
	MaxPrecision     = 6
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a count run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string // Absolute root directory to scan
	OutputDir  string // Optional directory collecting all CSVs (empty = next to sources)
	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	SkipCSV    bool // Count without writing summary CSVs

	RedRule      schema.RedRule
	NameFallback schema.NameFallback

	MetricsFile string // Optional Prometheus textfile path

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Compression    schema.Compression
	CompressOutput string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from countCmd.Flags() ---
	OutputDir     string `mapstructure:"output-dir"`
	NameFallback  string `mapstructure:"name-fallback"`
	HueRanges     string `mapstructure:"hue-ranges"`
	MinSaturation int    `mapstructure:"min-saturation"`
	MaxSaturation int    `mapstructure:"max-saturation"`
	MinValue      int    `mapstructure:"min-value"`
	MaxValue      int    `mapstructure:"max-value"`
	RangesFile    string `mapstructure:"ranges-file"`
	MetricsFile   string `mapstructure:"metrics-file"`

	// --- Fields from compressCmd.Flags() ---
	Compression    string `mapstructure:"compression"`
	CompressOutput string `mapstructure:"compress-output"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.RedRule.HueRanges != nil {
		clone.RedRule.HueRanges = make([]schema.HueRange, len(c.RedRule.HueRanges))
		copy(clone.RedRule.HueRanges, c.RedRule.HueRanges)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRedRule(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := resolveInputPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = strings.TrimSpace(input.MetricsFile)
	cfg.CompressOutput = strings.TrimSpace(input.CompressOutput)

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	// --- 2. Name Fallback Validation ---
	cfg.NameFallback = schema.NameFallback(strings.ToLower(strings.TrimSpace(input.NameFallback)))
	if cfg.NameFallback == "" {
		cfg.NameFallback = schema.FileFallback
	}
	if _, ok := schema.ValidNameFallbacks[cfg.NameFallback]; !ok {
		return fmt.Errorf("invalid name fallback '%s'. must be file, batch", input.NameFallback)
	}

	// --- 3. Compression Validation ---
	cfg.Compression = schema.Compression(strings.ToLower(strings.TrimSpace(input.Compression)))
	if cfg.Compression == "" {
		cfg.Compression = schema.DeflateCompression
	}
	if _, ok := schema.ValidCompressions[cfg.Compression]; !ok {
		return fmt.Errorf("invalid compression '%s'. must be deflate, none", input.Compression)
	}

	return nil
}

// processRedRule builds the red rule from a TOML profile or from the individual keys.
// A profile, when given, replaces the individual keys entirely.
func processRedRule(cfg *Config, input *ConfigRawInput) error {
	if path := strings.TrimSpace(input.RangesFile); path != "" {
		rule, err := LoadRangeProfile(path)
		if err != nil {
			return err
		}
		cfg.RedRule = rule
		return nil
	}

	hueRanges, err := ParseHueRanges(input.HueRanges)
	if err != nil {
		return err
	}

	rule := schema.RedRule{HueRanges: hueRanges}
	bounds := []struct {
		name string
		val  int
		dst  *uint8
	}{
		{"min-saturation", input.MinSaturation, &rule.SatMin},
		{"max-saturation", input.MaxSaturation, &rule.SatMax},
		{"min-value", input.MinValue, &rule.ValMin},
		{"max-value", input.MaxValue, &rule.ValMax},
	}
	for _, b := range bounds {
		if b.val < 0 || b.val > 255 {
			return fmt.Errorf("%s must be between 0 and 255 (received %d)", b.name, b.val)
		}
		*b.dst = uint8(b.val)
	}

	if err := ValidateRedRule(rule); err != nil {
		return err
	}
	cfg.RedRule = rule
	return nil
}

// ValidateRedRule checks that every bound of the rule is ordered and within range.
func ValidateRedRule(rule schema.RedRule) error {
	if len(rule.HueRanges) == 0 {
		return fmt.Errorf("at least one hue range is required")
	}
	for _, hr := range rule.HueRanges {
		if hr.Max > schema.MaxHue {
			return fmt.Errorf("hue range %d-%d exceeds the maximum hue %d", hr.Min, hr.Max, schema.MaxHue)
		}
		if hr.Min > hr.Max {
			return fmt.Errorf("hue range %d-%d has min greater than max", hr.Min, hr.Max)
		}
	}
	if rule.SatMin > rule.SatMax {
		return fmt.Errorf("saturation bounds %d-%d have min greater than max", rule.SatMin, rule.SatMax)
	}
	if rule.ValMin > rule.ValMax {
		return fmt.Errorf("value bounds %d-%d have min greater than max", rule.ValMin, rule.ValMax)
	}
	return nil
}

// ParseHueRanges parses a comma-separated list of inclusive hue ranges like "0-10,160-180".
func ParseHueRanges(s string) ([]schema.HueRange, error) {
	var ranges []schema.HueRange
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		if !found {
			return nil, fmt.Errorf("invalid hue range '%s'. expected MIN-MAX", part)
		}
		minHue, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid hue range '%s': %w", part, err)
		}
		maxHue, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid hue range '%s': %w", part, err)
		}
		if minHue < 0 || maxHue > schema.MaxHue || minHue > maxHue {
			return nil, fmt.Errorf("invalid hue range '%s'. bounds must satisfy 0 <= min <= max <= %d", part, schema.MaxHue)
		}
		ranges = append(ranges, schema.HueRange{Min: uint8(minHue), Max: uint8(maxHue)})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("at least one hue range is required")
	}
	return ranges, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveInputPath resolves the scan root and the optional output directory to absolute paths.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	searchPath := input.InputPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, err := os.Stat(absSearchPath)
	if err != nil {
		return fmt.Errorf("cannot access input path %q: %w", searchPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %q is not a directory", searchPath)
	}
	cfg.InputPath = absSearchPath

	if dir := strings.TrimSpace(input.OutputDir); dir != "" {
		absOutputDir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		cfg.OutputDir = filepath.Clean(absOutputDir)
	} else {
		cfg.OutputDir = ""
	}

	return nil
}
