package core

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/huangsam/reddot/core/algo"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// ProcessFile decodes every frame of the file at path and counts its red pixels.
// Frames are counted as they are decoded and dropped right after, so the file is never held in memory as a whole.
// Progress lines go to out; pass io.Discard to stay silent.
func ProcessFile(ctx context.Context, decoder contract.FrameDecoder, path string, rule schema.RedRule, out io.Writer) (schema.FileRecord, error) {
	name := filepath.Base(path)
	record := schema.FileRecord{FileName: name}

	_, _ = fmt.Fprintf(out, "🔎 Processing file: %s\n", name)

	frames, err := decoder.DecodeFrames(ctx, path, func(index int, frame image.Image) error {
		count, err := algo.CountRedPixels(frame, rule)
		if err != nil {
			return fmt.Errorf("%s frame %d: %w", path, index, err)
		}

		bounds := frame.Bounds()
		fc := schema.FrameCount{
			Index:  index,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Layout: algo.Layout(frame),
			Count:  count,
		}
		_, _ = fmt.Fprintf(out, "   Frame %d: %dx%d %s, red dots: %d\n", fc.Index, fc.Width, fc.Height, fc.Layout, fc.Count)

		record.Frames = append(record.Frames, fc)
		record.TotalRedDotCount += count
		return nil
	})
	if err != nil {
		return schema.FileRecord{}, err
	}
	if frames == 0 {
		return schema.FileRecord{}, fmt.Errorf("%w: %s: no frames", contract.ErrDecode, path)
	}

	_, _ = fmt.Fprintf(out, "   Loaded %d frames, total red dots: %d\n", frames, record.TotalRedDotCount)
	return record, nil
}
