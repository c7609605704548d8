package tiffx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/huangsam/reddot/schema"
	"golang.org/x/image/tiff"
)

// ErrNoPages is returned when a writer is closed before any page was written.
var ErrNoPages = errors.New("tiff has no pages")

// WriterAtWriter is the sink for a multi-page TIFF. *os.File satisfies it.
type WriterAtWriter interface {
	io.Writer
	io.WriterAt
}

// Writer appends pages to a little-endian multi-page TIFF.
// Each page is encoded on its own, relocated to its position in the file,
// and linked from the previous page's next-IFD field.
type Writer struct {
	w       WriterAtWriter
	opts    *tiff.Options
	pos     int64 // bytes written so far
	linkPos int64 // offset of the field that must point at the next IFD
	pages   int
}

// NewWriter writes the TIFF header to w and returns a writer for its pages.
func NewWriter(w WriterAtWriter, compression schema.Compression) (*Writer, error) {
	opts := &tiff.Options{Compression: tiff.Uncompressed}
	if compression == schema.DeflateCompression {
		opts.Compression = tiff.Deflate
	}

	header := []byte{'I', 'I', tiffMagic, 0, 0, 0, 0, 0}
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing tiff header: %w", err)
	}
	return &Writer{w: w, opts: opts, pos: headerSize, linkPos: 4}, nil
}

// Pages returns how many pages were written.
func (tw *Writer) Pages() int {
	return tw.pages
}

// WritePage encodes img and appends it as the next page.
func (tw *Writer) WritePage(img image.Image) error {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, tw.opts); err != nil {
		return fmt.Errorf("encoding page %d: %w", tw.pages, err)
	}
	data := buf.Bytes()

	// Pages start on a word boundary
	if tw.pos%2 == 1 {
		if _, err := tw.w.Write([]byte{0}); err != nil {
			return fmt.Errorf("writing page %d padding: %w", tw.pages, err)
		}
		tw.pos++
	}

	delta := uint32(tw.pos - headerSize)
	ifdOffset := binary.LittleEndian.Uint32(data[4:8])
	entries, err := relocateIFD(data, ifdOffset, delta)
	if err != nil {
		return fmt.Errorf("relocating page %d: %w", tw.pages, err)
	}

	if _, err := tw.w.Write(data[headerSize:]); err != nil {
		return fmt.Errorf("writing page %d: %w", tw.pages, err)
	}

	var link [4]byte
	binary.LittleEndian.PutUint32(link[:], ifdOffset+delta)
	if _, err := tw.w.WriteAt(link[:], tw.linkPos); err != nil {
		return fmt.Errorf("linking page %d: %w", tw.pages, err)
	}

	tw.linkPos = int64(ifdOffset+delta) + 2 + int64(entries)*entrySize
	tw.pos += int64(len(data) - headerSize)
	tw.pages++
	return nil
}

// Close finishes the file. The underlying writer is left open.
func (tw *Writer) Close() error {
	if tw.pages == 0 {
		return ErrNoPages
	}
	return nil
}

// WriteFile writes all pages to a new TIFF file at path.
func WriteFile(path string, pages []image.Image, compression schema.Compression) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	tw, err := NewWriter(f, compression)
	if err != nil {
		return err
	}
	for _, page := range pages {
		if err := tw.WritePage(page); err != nil {
			return err
		}
	}
	return tw.Close()
}

// relocateIFD shifts every absolute offset of a single-page little-endian TIFF by delta.
// Offsets are patched in place and the number of IFD entries is returned.
func relocateIFD(data []byte, ifdOffset, delta uint32) (int, error) {
	le := binary.LittleEndian
	if int(ifdOffset)+2 > len(data) {
		return 0, errMalformed
	}
	count := int(le.Uint16(data[ifdOffset:]))
	if int(ifdOffset)+2+count*entrySize+4 > len(data) {
		return 0, errMalformed
	}

	for i := range count {
		entry := data[int(ifdOffset)+2+i*entrySize:]
		tag := le.Uint16(entry[0:2])
		dt := le.Uint16(entry[2:4])
		n := le.Uint32(entry[4:8])
		size := typeSize(dt) * n
		value := entry[8:12]

		if tag == tagStripOffsets || tag == tagTileOffsets {
			if dt != dtLong {
				return 0, fmt.Errorf("%w: offsets stored as type %d", errMalformed, dt)
			}
			if size <= 4 {
				le.PutUint32(value, le.Uint32(value)+delta)
				continue
			}
			at := le.Uint32(value)
			if int(at)+int(size) > len(data) {
				return 0, errMalformed
			}
			for j := range n {
				p := data[at+j*4:]
				le.PutUint32(p, le.Uint32(p)+delta)
			}
			le.PutUint32(value, at+delta)
			continue
		}

		if size > 4 {
			le.PutUint32(value, le.Uint32(value)+delta)
		}
	}

	return count, nil
}
