package algo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// Layout names the pixel layout of a decoded frame.
func Layout(img image.Image) string {
	switch img.(type) {
	case *image.RGBA:
		return "rgba8"
	case *image.NRGBA:
		return "nrgba8"
	case *image.Paletted:
		return "paletted8"
	case *image.YCbCr:
		return "ycbcr8"
	case *image.Gray:
		return "gray8"
	case *image.Gray16:
		return "gray16"
	case *image.RGBA64:
		return "rgba16"
	case *image.NRGBA64:
		return "nrgba16"
	case *image.CMYK:
		return "cmyk8"
	case *image.Alpha:
		return "alpha8"
	case *image.Alpha16:
		return "alpha16"
	default:
		return fmt.Sprintf("%T", img)
	}
}

// CountRedPixels counts the pixels of a frame that are red under the rule.
// Only 8-bit color layouts are accepted. Alpha is ignored.
// Any other layout returns an error wrapping contract.ErrConversion.
func CountRedPixels(img image.Image, rule schema.RedRule) (int, error) {
	switch m := img.(type) {
	case *image.RGBA:
		return countInterleaved(m.Pix, m.Stride, m.Rect, rule), nil
	case *image.NRGBA:
		return countInterleaved(m.Pix, m.Stride, m.Rect, rule), nil
	case *image.Paletted:
		return countPaletted(m, rule), nil
	case *image.YCbCr:
		return countYCbCr(m, rule), nil
	default:
		return 0, fmt.Errorf("%w: unsupported pixel layout %s", contract.ErrConversion, Layout(img))
	}
}

// countInterleaved walks 4-byte RGBA-ordered pixels row by row.
func countInterleaved(pix []uint8, stride int, rect image.Rectangle, rule schema.RedRule) int {
	count := 0
	width := rect.Dx()
	for y := 0; y < rect.Dy(); y++ {
		row := pix[y*stride : y*stride+width*4]
		for i := 0; i < len(row); i += 4 {
			if IsRed(rule, row[i], row[i+1], row[i+2]) {
				count++
			}
		}
	}
	return count
}

// countPaletted classifies each palette entry once and counts indices.
func countPaletted(m *image.Paletted, rule schema.RedRule) int {
	red := make([]bool, len(m.Palette))
	for i, c := range m.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		red[i] = IsRed(rule, n.R, n.G, n.B)
	}

	count := 0
	width := m.Rect.Dx()
	for y := 0; y < m.Rect.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+width]
		for _, idx := range row {
			if int(idx) < len(red) && red[idx] {
				count++
			}
		}
	}
	return count
}

func countYCbCr(m *image.YCbCr, rule schema.RedRule) int {
	count := 0
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			yi := m.YOffset(x, y)
			ci := m.COffset(x, y)
			r, g, b := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
			if IsRed(rule, r, g, b) {
				count++
			}
		}
	}
	return count
}
