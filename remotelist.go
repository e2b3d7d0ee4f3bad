package main

import (
	"context"
)

type ListOptions struct {
	// ScanComment searches backward for the EOCD record instead of assuming
	// it occupies the last 22 bytes.
	ScanComment bool
}

// ListFiles returns the file names of the ZIP archive behind src, in central
// directory order. Directory entries are skipped.
func ListFiles(ctx context.Context, src RangeSource, opts ListOptions) ([]string, error) {
	size, err := src.Size(ctx)
	if err != nil {
		return nil, withOp("size", err)
	}
	var eocd []byte
	var at uint64
	if opts.ScanComment {
		eocd, at, err = ScanEOCD(ctx, src, size)
	} else {
		eocd, err = FetchEOCD(ctx, src, size)
		at = size - EndOfCentralDirectorySize
	}
	if err != nil {
		return nil, err
	}
	cd, err := LocateCentralDirectory(ctx, src, eocd, at)
	if err != nil {
		return nil, err
	}
	return ParseCentralDirectory(cd)
}
