package main

import (
	"encoding/binary"
	"errors"
	"strings"
)

// from APPNOTE.TXT 4.3.12 (central directory file header)
const (
	CentralDirectorySignature  = 0x02014b50
	CentralDirectoryHeaderSize = 46
)

var errShortBuffer = errors.New("short buffer")

// cursor is a read position over a byte slice. Reads past the end fail with errShortBuffer.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) skip(n int) error {
	if n < 0 || n > c.remaining() {
		return errShortBuffer
	}
	c.off += n
	return nil
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, errShortBuffer
	}
	res := c.buf[c.off : c.off+n]
	c.off += n
	return res, nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ParseCentralDirectory returns the names of the non-directory entries in record order.
// Trailing bytes shorter than a header are ignored.
func ParseCentralDirectory(cd []byte) ([]string, error) {
	cur := &cursor{buf: cd}
	res := make([]string, 0)
	for idx := 0; cur.remaining() >= CentralDirectoryHeaderSize; idx++ {
		start := cur.off
		sig, err := cur.uint32()
		if err != nil {
			return nil, parseError(idx, start, err)
		}
		if sig != CentralDirectorySignature {
			return nil, errorf(KindInvalidFormat, "parse",
				"record %d at offset %d: bad signature 0x%08x", idx, start, sig)
		}
		// version made by, version needed, flags, method, time, date, crc32, sizes
		if err = cur.skip(24); err != nil {
			return nil, parseError(idx, start, err)
		}
		nameLen, err := cur.uint16()
		if err != nil {
			return nil, parseError(idx, start, err)
		}
		extraLen, err := cur.uint16()
		if err != nil {
			return nil, parseError(idx, start, err)
		}
		commentLen, err := cur.uint16()
		if err != nil {
			return nil, parseError(idx, start, err)
		}
		// disk number, internal/external attributes, local header offset
		if err = cur.skip(12); err != nil {
			return nil, parseError(idx, start, err)
		}
		name, err := cur.next(int(nameLen))
		if err != nil {
			return nil, parseError(idx, start, err)
		}
		if err = cur.skip(int(extraLen) + int(commentLen)); err != nil {
			return nil, parseError(idx, start, err)
		}
		fname := strings.ToValidUTF8(string(name), "\uFFFD")
		if !strings.HasSuffix(fname, "/") {
			res = append(res, fname)
		}
	}
	return res, nil
}

func parseError(idx, offset int, err error) error {
	return errorf(KindInvalidFormat, "parse", "record %d at offset %d: %w", idx, offset, err)
}
