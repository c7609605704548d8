package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input that passes validation for the given root.
func validInput(root string) *ConfigRawInput {
	return &ConfigRawInput{
		InputPathStr:   root,
		Output:         "text",
		Precision:      DefaultPrecision,
		Color:          "no",
		CacheBackend:   string(schema.NoneBackend),
		HistoryBackend: string(schema.NoneBackend),
		NameFallback:   string(schema.FileFallback),
		HueRanges:      schema.DefaultHueRanges,
		MinSaturation:  schema.DefaultSatMin,
		MaxSaturation:  255,
		MinValue:       schema.DefaultValMin,
		MaxValue:       255,
		Compression:    string(schema.DeflateCompression),
	}
}

func TestProcessAndValidate(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name        string
		mutate      func(in *ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"precision too low", func(in *ConfigRawInput) { in.Precision = 0 }, true},
		{"precision too high", func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 }, true},
		{"parquet needs file", func(in *ConfigRawInput) { in.Output = "parquet" }, true},
		{"parquet with file", func(in *ConfigRawInput) {
			in.Output = "parquet"
			in.OutputFile = filepath.Join(root, "out.parquet")
		}, false},
		{"invalid fallback", func(in *ConfigRawInput) { in.NameFallback = "never" }, true},
		{"empty fallback defaults", func(in *ConfigRawInput) { in.NameFallback = "" }, false},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "maybe" }, true},
		{"invalid hue ranges", func(in *ConfigRawInput) { in.HueRanges = "10-0" }, true},
		{"saturation out of range", func(in *ConfigRawInput) { in.MaxSaturation = 300 }, true},
		{"saturation inverted", func(in *ConfigRawInput) {
			in.MinSaturation = 200
			in.MaxSaturation = 100
		}, true},
		{"value negative", func(in *ConfigRawInput) { in.MinValue = -1 }, true},
		{"invalid compression", func(in *ConfigRawInput) { in.Compression = "lzw" }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"mysql cache needs connect", func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, true},
		{"invalid history backend", func(in *ConfigRawInput) { in.HistoryBackend = "mongo" }, true},
		{"missing root", func(in *ConfigRawInput) { in.InputPathStr = filepath.Join(root, "missing") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(root)
			tt.mutate(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateResolvesPaths(t *testing.T) {
	root := t.TempDir()
	input := validInput(root)
	input.OutputDir = filepath.Join(root, "csv")

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.True(t, filepath.IsAbs(cfg.InputPath))
	assert.Equal(t, filepath.Clean(root), cfg.InputPath)
	assert.Equal(t, filepath.Join(root, "csv"), cfg.OutputDir)
	assert.Equal(t, schema.DefaultRedRule(), cfg.RedRule)
	assert.Equal(t, schema.FileFallback, cfg.NameFallback)
	assert.False(t, cfg.UseColors)
}

func TestProcessAndValidateRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.tif")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := ProcessAndValidate(&Config{}, validInput(file))
	assert.ErrorContains(t, err, "not a directory")
}

func TestProcessAndValidateRangesFile(t *testing.T) {
	root := t.TempDir()
	rangesPath := filepath.Join(root, "ranges.toml")
	content := `name = "narrow"

[rule]
sat_min = 150
sat_max = 255
val_min = 120
val_max = 255

[[rule.hue_ranges]]
min = 0
max = 5
`
	require.NoError(t, os.WriteFile(rangesPath, []byte(content), 0o644))

	input := validInput(root)
	input.RangesFile = rangesPath
	// Individual keys are ignored once a profile is given
	input.HueRanges = "not-a-range"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []schema.HueRange{{Min: 0, Max: 5}}, cfg.RedRule.HueRanges)
	assert.Equal(t, uint8(150), cfg.RedRule.SatMin)
	assert.Equal(t, uint8(120), cfg.RedRule.ValMin)
}

func TestValidateBackendConfigsSharedSQLite(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "shared.db")

	input := validInput(root)
	input.CacheBackend = string(schema.SQLiteBackend)
	input.CacheDBConnect = shared
	input.HistoryBackend = string(schema.SQLiteBackend)
	input.HistoryDBConnect = shared

	err := ProcessAndValidate(&Config{}, input)
	assert.ErrorContains(t, err, "different SQLite database files")

	input.HistoryDBConnect = filepath.Join(root, "history.db")
	assert.NoError(t, ProcessAndValidate(&Config{}, input))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/reddot", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/reddot", true},
		{"mysql missing db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=reddot", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=reddot", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseHueRanges(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []schema.HueRange
		wantErr bool
	}{
		{"default", "0-10,160-180", []schema.HueRange{{Min: 0, Max: 10}, {Min: 160, Max: 180}}, false},
		{"spaces", " 0 - 10 , 170-180 ", []schema.HueRange{{Min: 0, Max: 10}, {Min: 170, Max: 180}}, false},
		{"single point", "5-5", []schema.HueRange{{Min: 5, Max: 5}}, false},
		{"empty", "", nil, true},
		{"inverted", "10-0", nil, true},
		{"above max", "170-181", nil, true},
		{"missing dash", "10", nil, true},
		{"not numeric", "a-b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHueRanges(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultRangesFile)

	require.NoError(t, SaveRangeProfile(path, DefaultRangeProfile()))

	rule, err := LoadRangeProfile(path)
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultRedRule(), rule)
}

func TestLoadRangeProfileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRangeProfile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[rule\n"), 0o644))
	_, err = LoadRangeProfile(bad)
	assert.Error(t, err)

	inverted := filepath.Join(dir, "inverted.toml")
	require.NoError(t, os.WriteFile(inverted, []byte("[rule]\nsat_min = 200\nsat_max = 100\n"), 0o644))
	_, err = LoadRangeProfile(inverted)
	assert.ErrorContains(t, err, "saturation")
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{RedRule: schema.DefaultRedRule(), Precision: 2}
	clone := cfg.Clone()

	clone.RedRule.HueRanges[0].Max = 99
	clone.Precision = 4

	assert.Equal(t, uint8(10), cfg.RedRule.HueRanges[0].Max)
	assert.Equal(t, 2, cfg.Precision)
}
