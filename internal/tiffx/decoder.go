package tiffx

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/reddot/internal/contract"
	"golang.org/x/image/tiff"
)

// Decoder decodes every page of a TIFF file, one page at a time.
type Decoder struct{}

// NewDecoder returns a multi-page TIFF decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Compile-time check that Decoder implements contract.FrameDecoder.
var _ contract.FrameDecoder = (*Decoder)(nil)

// DecodeFrames opens the file and hands each decoded page to visit.
// A file without pages, or with a page that fails to decode, returns an error wrapping contract.ErrDecode.
func (d *Decoder) DecodeFrames(ctx context.Context, path string, visit contract.FrameVisitor) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrDecode, path, err)
	}
	defer func() { _ = f.Close() }()

	return DecodePages(ctx, f, path, visit)
}

// DecodePages decodes every page reachable from the header of ra.
// The name is only used for error context.
func DecodePages(ctx context.Context, ra io.ReaderAt, name string, visit contract.FrameVisitor) (int, error) {
	order, first, header, err := readHeader(ra)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrDecode, name, err)
	}
	offsets, err := walkIFDs(ra, order, first)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrDecode, name, err)
	}
	if len(offsets) == 0 {
		return 0, fmt.Errorf("%w: %s: no frames", contract.ErrDecode, name)
	}

	for i, offset := range offsets {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		page := &pageReader{ra: ra, header: header}
		order.PutUint32(page.header[4:8], offset)

		img, err := tiff.Decode(page)
		if err != nil {
			return i, fmt.Errorf("%w: %s frame %d: %v", contract.ErrDecode, name, i, err)
		}
		if err := visit(i, img); err != nil {
			return i, err
		}
	}

	return len(offsets), nil
}

// pageReader presents the file as if its header pointed at a single page.
// The tiff package reads through io.ReaderAt when available, so only the first IFD offset is rewritten.
type pageReader struct {
	ra     io.ReaderAt
	header [headerSize]byte
	pos    int64
}

func (p *pageReader) ReadAt(b []byte, off int64) (int, error) {
	n, err := p.ra.ReadAt(b, off)
	for i := 0; i < n && off+int64(i) < headerSize; i++ {
		b[i] = p.header[off+int64(i)]
	}
	return n, err
}

func (p *pageReader) Read(b []byte) (int, error) {
	n, err := p.ReadAt(b, p.pos)
	p.pos += int64(n)
	return n, err
}
