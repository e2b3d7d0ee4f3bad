package main

import (
	"bytes"
	"context"
	"encoding/binary"
)

// from APPNOTE.TXT 4.3.16 (end of central directory record, without comment)
const (
	EndOfCentralDirectorySignature = 0x06054b50
	EndOfCentralDirectorySize      = 22
	MaxCommentLength               = 0xffff
)

// 32bit fields set to this value point to a ZIP64 record.
const zip64Marker32 = 0xffffffff

type EOCDRecord struct {
	Disk          uint16
	CDDisk        uint16
	EntriesOnDisk uint16
	Entries       uint16
	CDSize        uint32
	CDOffset      uint32
	CommentLength uint16
}

// ParseEOCD decodes a 22 byte EOCD record. The signature is not checked.
func ParseEOCD(b []byte) (*EOCDRecord, error) {
	if len(b) != EndOfCentralDirectorySize {
		return nil, errorf(KindInvalidFormat, "eocd", "record size %d, want %d", len(b), EndOfCentralDirectorySize)
	}
	cur := &cursor{buf: b}
	res := EOCDRecord{}
	// signature
	if err := cur.skip(4); err != nil {
		return nil, newError(KindInvalidFormat, "eocd", err)
	}
	for _, v := range []*uint16{&res.Disk, &res.CDDisk, &res.EntriesOnDisk, &res.Entries} {
		val, err := cur.uint16()
		if err != nil {
			return nil, newError(KindInvalidFormat, "eocd", err)
		}
		*v = val
	}
	var err error
	if res.CDSize, err = cur.uint32(); err != nil {
		return nil, newError(KindInvalidFormat, "eocd", err)
	}
	if res.CDOffset, err = cur.uint32(); err != nil {
		return nil, newError(KindInvalidFormat, "eocd", err)
	}
	if res.CommentLength, err = cur.uint16(); err != nil {
		return nil, newError(KindInvalidFormat, "eocd", err)
	}
	return &res, nil
}

// FetchEOCD reads the last 22 bytes of an object of the given size.
// The archive comment is assumed to be empty.
func FetchEOCD(ctx context.Context, src RangeSource, size uint64) ([]byte, error) {
	if size < EndOfCentralDirectorySize {
		return nil, errorf(KindInvalidFormat, "eocd", "object size %d is smaller than an EOCD record", size)
	}
	buf, err := src.ReadRange(ctx, size-EndOfCentralDirectorySize, size-1)
	if err != nil {
		return nil, withOp("eocd", err)
	}
	if len(buf) != EndOfCentralDirectorySize {
		return nil, errorf(KindRangeUnsupported, "eocd", "got %d bytes, want %d", len(buf), EndOfCentralDirectorySize)
	}
	return buf, nil
}

// ScanEOCD reads up to 22+65535 trailing bytes and searches backward for the
// EOCD signature. It returns the record and its absolute offset.
func ScanEOCD(ctx context.Context, src RangeSource, size uint64) ([]byte, uint64, error) {
	if size < EndOfCentralDirectorySize {
		return nil, 0, errorf(KindInvalidFormat, "eocd", "object size %d is smaller than an EOCD record", size)
	}
	taillen := min(size, uint64(EndOfCentralDirectorySize+MaxCommentLength))
	start := size - taillen
	tail, err := src.ReadRange(ctx, start, size-1)
	if err != nil {
		return nil, 0, withOp("eocd", err)
	}
	if uint64(len(tail)) != taillen {
		return nil, 0, errorf(KindRangeUnsupported, "eocd", "got %d bytes, want %d", len(tail), taillen)
	}
	sig := make([]byte, 4)
	binary.LittleEndian.PutUint32(sig, EndOfCentralDirectorySignature)
	for i := len(tail) - EndOfCentralDirectorySize; i >= 0; i-- {
		if !bytes.Equal(tail[i:i+4], sig) {
			continue
		}
		clen := int(binary.LittleEndian.Uint16(tail[i+20 : i+22]))
		if i+EndOfCentralDirectorySize+clen <= len(tail) {
			return tail[i : i+EndOfCentralDirectorySize], start + uint64(i), nil
		}
	}
	return nil, 0, errorf(KindInvalidFormat, "eocd", "signature not found in last %d bytes", taillen)
}

// LocateCentralDirectory decodes the central directory range from the EOCD
// record found at eocdOffset and fetches it. An empty directory yields an
// empty buffer without a request.
func LocateCentralDirectory(ctx context.Context, src RangeSource, eocd []byte, eocdOffset uint64) ([]byte, error) {
	rec, err := ParseEOCD(eocd)
	if err != nil {
		return nil, err
	}
	if rec.CDSize == 0 {
		return []byte{}, nil
	}
	if rec.CDSize == zip64Marker32 || rec.CDOffset == zip64Marker32 {
		return nil, errorf(KindInvalidFormat, "eocd", "zip64 archive is not supported")
	}
	from := uint64(rec.CDOffset)
	end := from + uint64(rec.CDSize)
	if end > eocdOffset {
		return nil, errorf(KindInvalidFormat, "eocd",
			"central directory %d+%d runs past the EOCD record at %d", from, rec.CDSize, eocdOffset)
	}
	buf, err := src.ReadRange(ctx, from, end-1)
	if err != nil {
		return nil, withOp("central directory", err)
	}
	if uint64(len(buf)) != uint64(rec.CDSize) {
		return nil, errorf(KindRangeUnsupported, "central directory", "got %d bytes, want %d", len(buf), rec.CDSize)
	}
	return buf, nil
}
