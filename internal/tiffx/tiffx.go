// Package tiffx reads and writes multi-page TIFF files on top of golang.org/x/image/tiff,
// which only handles the first image file directory (IFD) of a file.
package tiffx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// TIFF header and IFD layout constants.
const (
	headerSize = 8
	entrySize  = 12
	tiffMagic  = 42
	bigTIFF    = 43

	tagStripOffsets = 273
	tagTileOffsets  = 324

	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndefined = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
)

var errMalformed = errors.New("malformed tiff")

// typeSize returns the byte size of one value of the given TIFF field type, or 0 if unknown.
func typeSize(dt uint16) uint32 {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndefined:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat:
		return 4
	case dtRational, dtSRational, dtDouble:
		return 8
	default:
		return 0
	}
}

// readHeader validates the 8-byte header and returns the byte order and the first IFD offset.
func readHeader(ra io.ReaderAt) (binary.ByteOrder, uint32, [headerSize]byte, error) {
	var h [headerSize]byte
	if _, err := ra.ReadAt(h[:], 0); err != nil {
		return nil, 0, h, fmt.Errorf("%w: reading header: %v", errMalformed, err)
	}

	var order binary.ByteOrder
	switch string(h[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, 0, h, fmt.Errorf("%w: bad byte order %q", errMalformed, h[0:2])
	}

	switch order.Uint16(h[2:4]) {
	case tiffMagic:
	case bigTIFF:
		return nil, 0, h, fmt.Errorf("%w: BigTIFF is not supported", errMalformed)
	default:
		return nil, 0, h, fmt.Errorf("%w: bad magic number", errMalformed)
	}

	return order, order.Uint32(h[4:8]), h, nil
}

// PageOffsets walks the IFD chain and returns the offset of every page in file order.
func PageOffsets(ra io.ReaderAt) ([]uint32, error) {
	order, offset, _, err := readHeader(ra)
	if err != nil {
		return nil, err
	}
	return walkIFDs(ra, order, offset)
}

func walkIFDs(ra io.ReaderAt, order binary.ByteOrder, offset uint32) ([]uint32, error) {
	var offsets []uint32
	seen := make(map[uint32]bool)
	var buf [4]byte

	for offset != 0 {
		if seen[offset] {
			return nil, fmt.Errorf("%w: IFD chain loops back to offset %d", errMalformed, offset)
		}
		seen[offset] = true
		offsets = append(offsets, offset)

		if _, err := ra.ReadAt(buf[:2], int64(offset)); err != nil {
			return nil, fmt.Errorf("%w: reading IFD %d entry count: %v", errMalformed, len(offsets)-1, err)
		}
		count := int64(order.Uint16(buf[:2]))

		nextAt := int64(offset) + 2 + count*entrySize
		if _, err := ra.ReadAt(buf[:4], nextAt); err != nil {
			return nil, fmt.Errorf("%w: reading IFD %d next offset: %v", errMalformed, len(offsets)-1, err)
		}
		offset = order.Uint32(buf[:4])
	}

	return offsets, nil
}
