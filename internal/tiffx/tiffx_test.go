package tiffx

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidNRGBA returns a w x h frame filled with c.
func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// collect decodes every page of the file at path.
func collect(t *testing.T, path string) []image.Image {
	t.Helper()
	var frames []image.Image
	n, err := NewDecoder().DecodeFrames(context.Background(), path, func(_ int, frame image.Image) error {
		frames = append(frames, frame)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(frames), n)
	return frames
}

func TestWriteAndDecodeMultiPage(t *testing.T) {
	for _, compression := range []schema.Compression{schema.DeflateCompression, schema.NoCompression} {
		t.Run(string(compression), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "stack.tif")
			pages := []image.Image{
				solidNRGBA(3, 2, color.NRGBA{R: 255, A: 255}),
				solidNRGBA(5, 4, color.NRGBA{G: 255, A: 255}),
				solidNRGBA(7, 1, color.NRGBA{B: 255, A: 255}),
			}
			require.NoError(t, WriteFile(path, pages, compression))

			frames := collect(t, path)
			require.Len(t, frames, 3)
			for i, frame := range frames {
				assert.Equal(t, pages[i].Bounds(), frame.Bounds(), "frame %d bounds", i)
				r1, g1, b1, _ := pages[i].At(0, 0).RGBA()
				r2, g2, b2, _ := frame.At(0, 0).RGBA()
				assert.Equal(t, []uint32{r1, g1, b1}, []uint32{r2, g2, b2}, "frame %d color", i)
			}
		})
	}
}

func TestWriteOddSizedPages(t *testing.T) {
	// Uncompressed gray pages of odd byte length need padding between pages
	path := filepath.Join(t.TempDir(), "odd.tif")
	pages := []image.Image{
		image.NewGray(image.Rect(0, 0, 3, 3)),
		image.NewGray(image.Rect(0, 0, 1, 1)),
		image.NewGray(image.Rect(0, 0, 5, 1)),
	}
	require.NoError(t, WriteFile(path, pages, schema.NoCompression))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	offsets, err := PageOffsets(f)
	require.NoError(t, err)
	require.Len(t, offsets, 3)
	assert.Equal(t, uint32(17), offsets[0])

	frames := collect(t, path)
	assert.Len(t, frames, 3)
}

func TestWritePalettedPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.tif")
	palette := color.Palette{color.Black, color.NRGBA{R: 255, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	img.SetColorIndex(1, 1, 1)

	require.NoError(t, WriteFile(path, []image.Image{img, img}, schema.DeflateCompression))

	frames := collect(t, path)
	require.Len(t, frames, 2)
	for _, frame := range frames {
		p, ok := frame.(*image.Paletted)
		require.True(t, ok, "expected paletted frame, got %T", frame)
		assert.Equal(t, uint8(1), p.ColorIndexAt(1, 1))
	}
}

func TestWriterCloseWithoutPages(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.tif"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tw, err := NewWriter(f, schema.DeflateCompression)
	require.NoError(t, err)
	assert.ErrorIs(t, tw.Close(), ErrNoPages)
	assert.Zero(t, tw.Pages())
}

func TestDecodeZeroPages(t *testing.T) {
	// Valid header whose first IFD offset is zero
	path := filepath.Join(t.TempDir(), "zero.tif")
	require.NoError(t, os.WriteFile(path, []byte{'I', 'I', 42, 0, 0, 0, 0, 0}, 0o644))

	_, err := NewDecoder().DecodeFrames(context.Background(), path, func(int, image.Image) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrDecode)
	assert.Contains(t, err.Error(), "no frames")
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a tiff", []byte("plain text, not an image")},
		{"too short", []byte{'I', 'I'}},
		{"bigtiff", []byte{'I', 'I', 43, 0, 8, 0, 0, 0}},
		{"dangling ifd", []byte{'I', 'I', 42, 0, 0xff, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".tif")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			_, err := NewDecoder().DecodeFrames(context.Background(), path, func(int, image.Image) error { return nil })
			assert.ErrorIs(t, err, contract.ErrDecode)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewDecoder().DecodeFrames(context.Background(), filepath.Join(dir, "missing.tif"), func(int, image.Image) error { return nil })
		assert.ErrorIs(t, err, contract.ErrDecode)
	})
}

func TestDecodeStopsOnVisitorError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.tif")
	page := solidNRGBA(2, 2, color.NRGBA{R: 255, A: 255})
	require.NoError(t, WriteFile(path, []image.Image{page, page, page}, schema.DeflateCompression))

	visited := 0
	_, err := NewDecoder().DecodeFrames(context.Background(), path, func(i int, _ image.Image) error {
		visited++
		if i == 1 {
			return contract.ErrConversion
		}
		return nil
	})
	assert.ErrorIs(t, err, contract.ErrConversion)
	assert.Equal(t, 2, visited)
}

func TestDecodeCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.tif")
	page := solidNRGBA(2, 2, color.NRGBA{R: 255, A: 255})
	require.NoError(t, WriteFile(path, []image.Image{page}, schema.DeflateCompression))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder().DecodeFrames(ctx, path, func(int, image.Image) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageOffsetsBigEndianChain(t *testing.T) {
	// Two empty IFDs chained in a big-endian file
	var buf bytes.Buffer
	buf.WriteString("MM")
	_ = binary.Write(&buf, binary.BigEndian, uint16(42))
	_ = binary.Write(&buf, binary.BigEndian, uint32(8))
	_ = binary.Write(&buf, binary.BigEndian, uint16(0))  // IFD 0 entry count
	_ = binary.Write(&buf, binary.BigEndian, uint32(14)) // next IFD
	_ = binary.Write(&buf, binary.BigEndian, uint16(0))  // IFD 1 entry count
	_ = binary.Write(&buf, binary.BigEndian, uint32(0))

	offsets, err := PageOffsets(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []uint32{8, 14}, offsets)
}

func TestPageOffsetsCycle(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8)) // points back at itself

	_, err := PageOffsets(bytes.NewReader(buf.Bytes()))
	assert.ErrorContains(t, err, "loops")
}

func TestTypeSize(t *testing.T) {
	assert.Equal(t, uint32(1), typeSize(dtASCII))
	assert.Equal(t, uint32(2), typeSize(dtShort))
	assert.Equal(t, uint32(4), typeSize(dtLong))
	assert.Equal(t, uint32(8), typeSize(dtRational))
	assert.Equal(t, uint32(0), typeSize(99))
}
