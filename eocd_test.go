package main

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func eocdRecord(cdSize, cdOffset uint32, commentLen uint16) []byte {
	buf := make([]byte, EndOfCentralDirectorySize)
	binary.LittleEndian.PutUint32(buf, EndOfCentralDirectorySignature)
	binary.LittleEndian.PutUint16(buf[8:10], 1)
	binary.LittleEndian.PutUint16(buf[10:12], 1)
	binary.LittleEndian.PutUint32(buf[12:16], cdSize)
	binary.LittleEndian.PutUint32(buf[16:20], cdOffset)
	binary.LittleEndian.PutUint16(buf[20:22], commentLen)
	return buf
}

func TestParseEOCD(t *testing.T) {
	t.Parallel()
	rec, err := ParseEOCD(eocdRecord(0xfffffff0, 0x80000001, 7))
	if err != nil {
		t.Fatal("parse", err)
	}
	if rec.CDSize != 0xfffffff0 || rec.CDOffset != 0x80000001 {
		t.Error("unsigned fields", rec.CDSize, rec.CDOffset)
	}
	if rec.Entries != 1 || rec.EntriesOnDisk != 1 || rec.CommentLength != 7 {
		t.Error("fields", rec)
	}
	if _, err = ParseEOCD(make([]byte, 21)); !errors.Is(err, ErrInvalidFormat) {
		t.Error("short record", err)
	}
}

func TestFetchEOCDSmall(t *testing.T) {
	t.Parallel()
	src := NewMemSource(make([]byte, 21))
	_, err := FetchEOCD(context.Background(), src, 21)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Error("small object", err)
	}
	if src.Calls != 0 {
		t.Error("request sent", src.Calls)
	}
}

func TestFetchEOCDIgnoredRange(t *testing.T) {
	t.Parallel()
	data := make([]byte, 100)
	copy(data[78:], eocdRecord(0, 0, 0))
	src := NewMemSource(data)
	src.IgnoreRange = true
	_, err := FetchEOCD(context.Background(), src, 100)
	if !errors.Is(err, ErrRangeUnsupported) {
		t.Error("ignored range", err)
	}
	var le *ListError
	if !errors.As(err, &le) || le.Op != "eocd" {
		t.Error("op", err)
	}
}

func TestLocateEmpty(t *testing.T) {
	t.Parallel()
	src := NewMemSource(eocdRecord(0, 0, 0))
	cd, err := LocateCentralDirectory(context.Background(), src, eocdRecord(0, 0, 0), 0)
	if err != nil {
		t.Error("empty", err)
	}
	if len(cd) != 0 {
		t.Error("buffer", cd)
	}
	if src.Calls != 0 {
		t.Error("request sent", src.Calls)
	}
}

func TestLocateZip64(t *testing.T) {
	t.Parallel()
	src := NewMemSource(make([]byte, 100))
	for _, rec := range [][]byte{eocdRecord(0xffffffff, 0, 0), eocdRecord(10, 0xffffffff, 0)} {
		if _, err := LocateCentralDirectory(context.Background(), src, rec, 78); !errors.Is(err, ErrInvalidFormat) {
			t.Error("zip64", err)
		}
	}
	if src.Calls != 0 {
		t.Error("request sent", src.Calls)
	}
}

func TestLocatePastEOCD(t *testing.T) {
	t.Parallel()
	src := NewMemSource(make([]byte, 100))
	_, err := LocateCentralDirectory(context.Background(), src, eocdRecord(50, 30, 0), 78)
	if KindOf(err) != KindInvalidFormat {
		t.Error("past eocd", err)
	}
	// offsets above 2^31 must not wrap
	_, err = LocateCentralDirectory(context.Background(), src, eocdRecord(0x10, 0xfffffff0, 0), 78)
	if KindOf(err) != KindInvalidFormat {
		t.Error("large offset", err)
	}
}

func TestLocateRange(t *testing.T) {
	t.Parallel()
	data := make([]byte, 100)
	cd := cdRecords("x.txt")
	copy(data[10:], cd)
	src := NewMemSource(data)
	res, err := LocateCentralDirectory(context.Background(), src, eocdRecord(uint32(len(cd)), 10, 0), 78)
	if err != nil {
		t.Fatal("locate", err)
	}
	if string(res) != string(cd) {
		t.Error("range", res)
	}
	src.IgnoreRange = true
	_, err = LocateCentralDirectory(context.Background(), src, eocdRecord(uint32(len(cd)), 10, 0), 78)
	if !errors.Is(err, ErrRangeUnsupported) {
		t.Error("ignored range", err)
	}
}

func TestScanEOCD(t *testing.T) {
	t.Parallel()
	data := makeZip(t, []string{"a.txt", "b/", "b/c.txt"}, "archive comment")
	src := NewMemSource(data)
	rec, at, err := ScanEOCD(context.Background(), src, uint64(len(data)))
	if err != nil {
		t.Fatal("scan", err)
	}
	if at != uint64(len(data)-EndOfCentralDirectorySize-len("archive comment")) {
		t.Error("offset", at, len(data))
	}
	parsed, err := ParseEOCD(rec)
	if err != nil {
		t.Fatal("parse", err)
	}
	if parsed.CommentLength != uint16(len("archive comment")) || parsed.Entries != 3 {
		t.Error("record", parsed)
	}
}

func TestScanEOCDNotFound(t *testing.T) {
	t.Parallel()
	src := NewMemSource(make([]byte, 200))
	_, _, err := ScanEOCD(context.Background(), src, 200)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Error("not found", err)
	}
}
