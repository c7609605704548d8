// Package algo has the pixel classification logic for red dot counting.
package algo

import (
	"math"

	"github.com/huangsam/reddot/schema"
	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a color on the 8-bit scale: hue in [0,180], saturation and value in [0,255].
type HSV struct {
	H uint8
	S uint8
	V uint8
}

// FromRGB converts 8-bit RGB to 8-bit HSV. Hue is halved from degrees so it fits a byte.
// Channels are rounded from the exact floating-point conversion, not from OpenCV's fixed-point
// tables, so a color sitting on a rounding boundary can land one step away from cvtColor's result.
func FromRGB(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	return HSV{
		H: uint8(math.Round(h / 2)),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// Matches reports whether the color satisfies the rule. All bounds are inclusive.
func Matches(rule schema.RedRule, c HSV) bool {
	if c.S < rule.SatMin || c.S > rule.SatMax {
		return false
	}
	if c.V < rule.ValMin || c.V > rule.ValMax {
		return false
	}
	for _, hr := range rule.HueRanges {
		if c.H >= hr.Min && c.H <= hr.Max {
			return true
		}
	}
	return false
}

// Classify reports whether the color is red under the default rule.
func Classify(c HSV) bool {
	return Matches(defaultRule, c)
}

var defaultRule = schema.DefaultRedRule()

// IsRed reports whether the 8-bit RGB color is red under the rule.
func IsRed(rule schema.RedRule, r, g, b uint8) bool {
	return Matches(rule, FromRGB(r, g, b))
}
