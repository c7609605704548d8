package contract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/huangsam/reddot/schema"
)

// DefaultRangesFile is the file name written by "profile init" when no path is given.
const DefaultRangesFile = "reddot-ranges.toml"

// RangeProfile is the on-disk TOML form of a red rule.
type RangeProfile struct {
	Name string         `toml:"name"`
	Rule schema.RedRule `toml:"rule"`
}

// DefaultRangeProfile returns a profile holding the default red rule.
func DefaultRangeProfile() RangeProfile {
	return RangeProfile{Name: "default", Rule: schema.DefaultRedRule()}
}

// LoadRangeProfile reads a TOML range profile and returns its validated rule.
// Bounds missing from the file keep their default values.
func LoadRangeProfile(path string) (schema.RedRule, error) {
	profile := DefaultRangeProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return schema.RedRule{}, fmt.Errorf("reading ranges file: %w", err)
	}

	// A file that lists its own hue ranges replaces the defaults instead of merging
	profile.Rule.HueRanges = nil
	if err := toml.Unmarshal(data, &profile); err != nil {
		return schema.RedRule{}, fmt.Errorf("parsing ranges file: %w", err)
	}
	if profile.Rule.HueRanges == nil {
		profile.Rule.HueRanges = schema.DefaultRedRule().HueRanges
	}

	if err := ValidateRedRule(profile.Rule); err != nil {
		return schema.RedRule{}, fmt.Errorf("invalid ranges file %s: %w", path, err)
	}
	return profile.Rule, nil
}

// SaveRangeProfile writes the profile as TOML, creating parent directories as needed.
func SaveRangeProfile(path string, profile RangeProfile) error {
	if err := ValidateRedRule(profile.Rule); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating ranges dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating ranges file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(profile)
}
