package schema

import (
	"fmt"
	"strings"
)

// HueRange is an inclusive hue interval on the 8-bit scale (0-180).
type HueRange struct {
	Min uint8 `json:"min" toml:"min"`
	Max uint8 `json:"max" toml:"max"`
}

// RedRule is the color-segmentation rule that decides whether a pixel is red.
// A pixel matches when its hue falls in any of HueRanges and both its
// saturation and value fall in their inclusive bounds.
type RedRule struct {
	HueRanges []HueRange `json:"hue_ranges" toml:"hue_ranges"`
	SatMin    uint8      `json:"sat_min" toml:"sat_min"`
	SatMax    uint8      `json:"sat_max" toml:"sat_max"`
	ValMin    uint8      `json:"val_min" toml:"val_min"`
	ValMax    uint8      `json:"val_max" toml:"val_max"`
}

// Default bounds of the red rule.
const (
	MaxHue           = 180
	DefaultSatMin    = 100
	DefaultValMin    = 100
	DefaultHueRanges = "0-10,160-180"
)

// DefaultRedRule returns the dual-range rule covering both ends of the hue circle.
func DefaultRedRule() RedRule {
	return RedRule{
		HueRanges: []HueRange{{Min: 0, Max: 10}, {Min: 160, Max: MaxHue}},
		SatMin:    DefaultSatMin,
		SatMax:    255,
		ValMin:    DefaultValMin,
		ValMax:    255,
	}
}

// String renders the rule in a stable form used for cache keys and logs.
func (r RedRule) String() string {
	parts := make([]string, 0, len(r.HueRanges))
	for _, hr := range r.HueRanges {
		parts = append(parts, fmt.Sprintf("%d-%d", hr.Min, hr.Max))
	}
	return fmt.Sprintf("h=%s s=%d-%d v=%d-%d", strings.Join(parts, ","), r.SatMin, r.SatMax, r.ValMin, r.ValMax)
}
