package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
)

// RangeSource is a byte-addressable object that can report its size and
// return inclusive byte ranges [from, to].
type RangeSource interface {
	Size(ctx context.Context) (uint64, error)
	ReadRange(ctx context.Context, from, to uint64) ([]byte, error)
}

func rangeLength(from, to uint64) (uint64, error) {
	if to < from {
		return 0, errorf(KindInvalidFormat, "", "invalid range %d-%d", from, to)
	}
	return to - from + 1, nil
}

// read buffers start at most this large and grow with the body
const maxInitialBuffer = 1 << 20

// checkRange fails unless buf is exactly the requested span.
func checkRange(buf []byte, from, to uint64) error {
	want := to - from + 1
	if uint64(len(buf)) != want {
		return errorf(KindRangeUnsupported, "", "bytes=%d-%d: got %d bytes, want %d", from, to, len(buf), want)
	}
	return nil
}

type FileSource struct {
	name string
}

func NewFileSource(name string) *FileSource {
	return &FileSource{name: name}
}

func (f *FileSource) Size(ctx context.Context) (uint64, error) {
	st, err := os.Stat(f.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, newError(KindNotFound, "", err)
		}
		return 0, newError(KindTransport, "", err)
	}
	if !st.Mode().IsRegular() {
		return 0, errorf(KindNotFound, "", "%s: not a regular file", f.name)
	}
	return uint64(st.Size()), nil
}

func (f *FileSource) ReadRange(ctx context.Context, from, to uint64) ([]byte, error) {
	length, err := rangeLength(from, to)
	if err != nil {
		return nil, err
	}
	fp, err := os.Open(f.name)
	if err != nil {
		return nil, newError(KindTransport, "", err)
	}
	defer fp.Close()
	buf := make([]byte, length)
	n, err := fp.ReadAt(buf, int64(from))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(KindTransport, "", err)
	}
	if err = checkRange(buf[:n], from, to); err != nil {
		return nil, err
	}
	return buf, nil
}

// MemSource serves ranges from memory. With IgnoreRange set it answers every
// read with the whole object, like a server without range support.
type MemSource struct {
	data        []byte
	IgnoreRange bool
	Calls       int
}

func NewMemSource(data []byte) *MemSource {
	return &MemSource{data: data}
}

func (m *MemSource) Size(ctx context.Context) (uint64, error) {
	m.Calls++
	return uint64(len(m.data)), nil
}

func (m *MemSource) ReadRange(ctx context.Context, from, to uint64) ([]byte, error) {
	m.Calls++
	if _, err := rangeLength(from, to); err != nil {
		return nil, err
	}
	var buf []byte
	if m.IgnoreRange {
		buf = m.data
	} else if from < uint64(len(m.data)) {
		end := min(to+1, uint64(len(m.data)))
		buf = m.data[from:end]
	}
	if err := checkRange(buf, from, to); err != nil {
		return nil, err
	}
	res := make([]byte, len(buf))
	copy(res, buf)
	return res, nil
}
