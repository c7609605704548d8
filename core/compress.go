package core

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/reddot/internal"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/tiffx"
	"github.com/huangsam/reddot/schema"
)

// compressedSuffix is appended to the stem of every recompressed file.
const compressedSuffix = "_compressed.tif"

// defaultCompressDir is used under the input directory when no compress output is configured.
const defaultCompressDir = "compressed"

// ExecuteCompress re-encodes every TIFF file directly inside cfg.InputPath, keeping all pages.
// It serves as the main entry point for the 'compress' command.
func ExecuteCompress(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	outDir := cfg.CompressOutput
	if outDir == "" {
		outDir = filepath.Join(cfg.InputPath, defaultCompressDir)
	}

	out := io.Writer(os.Stdout)
	if shouldSuppressHeader(ctx) {
		out = io.Discard
	} else {
		internal.LogCompressHeader(cfg.InputPath, outDir, cfg.Compression)
	}

	written, err := CompressDirectory(ctx, cfg.InputPath, outDir, cfg.Compression, out)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✅ Compressed %d files into %s\n", len(written), outDir)
	return nil
}

// CompressDirectory writes a recompressed copy of each qualifying file of dir into outDir
// and returns the paths written. Subdirectories are not visited.
func CompressDirectory(ctx context.Context, dir, outDir string, compression schema.Compression, out io.Writer) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory %s: %v", contract.ErrWrite, outDir, err)
	}

	var written []string
	for _, entry := range entries {
		if entry.IsDir() || !contract.IsQualifyingFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		src := filepath.Join(dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		dst := filepath.Join(outDir, stem+compressedSuffix)

		pages, err := CompressFile(ctx, src, dst, compression)
		if err != nil {
			return written, err
		}
		_, _ = fmt.Fprintf(out, "🗜️  %s → %s (%d pages)\n", entry.Name(), filepath.Base(dst), pages)
		written = append(written, dst)
	}
	return written, nil
}

// CompressFile streams every page of src into a new multi-page TIFF at dst and returns the page count.
// A partially written dst is removed on failure.
func CompressFile(ctx context.Context, src, dst string, compression schema.Compression) (pages int, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrDecode, src, err)
	}
	defer func() { _ = in.Close() }()

	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrWrite, dst, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %s: %v", contract.ErrWrite, dst, cerr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	tw, err := tiffx.NewWriter(f, compression)
	if err != nil {
		return 0, err
	}

	_, err = tiffx.DecodePages(ctx, in, src, func(_ int, frame image.Image) error {
		if werr := tw.WritePage(frame); werr != nil {
			return fmt.Errorf("%w: %s: %v", contract.ErrWrite, dst, werr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := tw.Close(); err != nil {
		if errors.Is(err, tiffx.ErrNoPages) {
			return 0, fmt.Errorf("%w: %s: no frames", contract.ErrDecode, src)
		}
		return 0, err
	}
	return tw.Pages(), nil
}
