package algo

import (
	"testing"

	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
)

func TestFromRGB(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"pure red", 255, 0, 0, HSV{H: 0, S: 255, V: 255}},
		{"pure green", 0, 255, 0, HSV{H: 60, S: 255, V: 255}},
		{"pure blue", 0, 0, 255, HSV{H: 120, S: 255, V: 255}},
		{"black", 0, 0, 0, HSV{H: 0, S: 0, V: 0}},
		{"white", 255, 255, 255, HSV{H: 0, S: 0, V: 255}},
		{"dark red", 200, 30, 30, HSV{H: 0, S: 217, V: 200}},
		{"pale red", 255, 150, 150, HSV{H: 0, S: 105, V: 255}},
		{"magenta red", 255, 0, 100, HSV{H: 168, S: 255, V: 255}},
		{"hue on a rounding boundary", 101, 0, 69, HSV{H: 160, S: 255, V: 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromRGB(tt.r, tt.g, tt.b))
		})
	}
}

func TestFromRGBRoundsExactHue(t *testing.T) {
	// 319.01 degrees halves to 159.505, which rounds up into the upper red range
	c := FromRGB(101, 0, 69)
	assert.Equal(t, uint8(160), c.H)
	assert.True(t, Classify(c))
}

func TestIsRedDefaultRule(t *testing.T) {
	rule := schema.DefaultRedRule()

	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"pure red", 255, 0, 0, true},
		{"dark red", 200, 30, 30, true},
		{"pure green", 0, 255, 0, false},
		{"too dark", 90, 0, 0, false},
		{"saturation at lower bound", 255, 150, 150, true},
		{"saturation below bound", 255, 160, 160, false},
		{"upper hue band", 255, 0, 100, true},
		{"orange", 255, 128, 0, false},
		{"white", 255, 255, 255, false},
		{"black", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRed(rule, tt.r, tt.g, tt.b))
		})
	}
}

func TestMatchesBoundsInclusive(t *testing.T) {
	rule := schema.RedRule{
		HueRanges: []schema.HueRange{{Min: 10, Max: 20}},
		SatMin:    50,
		SatMax:    150,
		ValMin:    60,
		ValMax:    160,
	}

	tests := []struct {
		name string
		c    HSV
		want bool
	}{
		{"all lower bounds", HSV{H: 10, S: 50, V: 60}, true},
		{"all upper bounds", HSV{H: 20, S: 150, V: 160}, true},
		{"hue below", HSV{H: 9, S: 100, V: 100}, false},
		{"hue above", HSV{H: 21, S: 100, V: 100}, false},
		{"saturation below", HSV{H: 15, S: 49, V: 100}, false},
		{"saturation above", HSV{H: 15, S: 151, V: 100}, false},
		{"value below", HSV{H: 15, S: 100, V: 59}, false},
		{"value above", HSV{H: 15, S: 100, V: 161}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(rule, tt.c))
		})
	}
}

func TestClassify(t *testing.T) {
	for h := 0; h <= schema.MaxHue; h++ {
		want := h <= 10 || h >= 160
		assert.Equal(t, want, Classify(HSV{H: uint8(h), S: 100, V: 255}), "hue %d", h)
	}
	assert.False(t, Classify(HSV{H: 5, S: 99, V: 255}))
	assert.False(t, Classify(HSV{H: 5, S: 255, V: 99}))
}

func TestMatchesNoHueRanges(t *testing.T) {
	rule := schema.DefaultRedRule()
	rule.HueRanges = nil
	assert.False(t, Matches(rule, HSV{H: 0, S: 255, V: 255}))
}

// FuzzFromRGB checks that conversion stays on the 8-bit scale.
func FuzzFromRGB(f *testing.F) {
	f.Add(uint8(255), uint8(0), uint8(0))
	f.Add(uint8(0), uint8(0), uint8(0))
	f.Add(uint8(255), uint8(0), uint8(1))
	f.Add(uint8(17), uint8(200), uint8(99))

	f.Fuzz(func(t *testing.T, r, g, b uint8) {
		c := FromRGB(r, g, b)
		if c.H > schema.MaxHue {
			t.Fatalf("hue %d out of range for (%d,%d,%d)", c.H, r, g, b)
		}
		if c.V != max(r, g, b) {
			t.Fatalf("value %d should equal max channel for (%d,%d,%d)", c.V, r, g, b)
		}
		if r == g && g == b && c.S != 0 {
			t.Fatalf("grey (%d,%d,%d) should have zero saturation", r, g, b)
		}
	})
}
