package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// HTTPSource reads byte ranges of a remote object with HTTP range requests.
type HTTPSource struct {
	url         string
	client      *http.Client
	headers     http.Header
	progress    bool
	progressMin uint64
}

type HTTPOption func(*HTTPSource)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// WithHeader sets a header on each request.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPSource) {
		s.headers.Set(key, value)
	}
}

// WithProgress shows a progress bar on stderr for ranges of at least minsize bytes.
func WithProgress(minsize uint64) HTTPOption {
	return func(s *HTTPSource) {
		s.progress = true
		s.progressMin = minsize
	}
}

func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:     url,
		client:  http.DefaultClient,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	return s
}

func (s *HTTPSource) newRequest(ctx context.Context, method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.url, http.NoBody)
	if err != nil {
		return nil, newError(KindInvalidInput, "", err)
	}
	for k, v := range s.headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

func drain(resp *http.Response) {
	if written, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Debug("drain body", "written", written, "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		slog.Debug("close body", "error", err)
	}
}

func (s *HTTPSource) Size(ctx context.Context) (uint64, error) {
	req, err := s.newRequest(ctx, http.MethodHead)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, newError(KindTransport, "", err)
	}
	defer drain(resp)
	slog.Debug("head", "url", s.url, "status", resp.StatusCode, "length", resp.ContentLength)
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return 0, errorf(KindNotFound, "", "HEAD %s: %s", s.url, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, errorf(KindTransport, "", "HEAD %s: %s", s.url, resp.Status)
	}
	if resp.ContentLength < 0 {
		return 0, errorf(KindNotFound, "", "HEAD %s: no Content-Length", s.url)
	}
	return uint64(resp.ContentLength), nil
}

func (s *HTTPSource) ReadRange(ctx context.Context, from, to uint64) ([]byte, error) {
	length, err := rangeLength(from, to)
	if err != nil {
		return nil, err
	}
	req, err := s.newRequest(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	spec := fmt.Sprintf("bytes=%d-%d", from, to)
	req.Header.Set("Range", spec)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newError(KindTransport, "", err)
	}
	defer drain(resp)
	slog.Debug("range", "url", s.url, "range", spec, "status", resp.StatusCode, "length", resp.ContentLength)
	switch resp.StatusCode {
	case http.StatusPartialContent:
		// ok
	case http.StatusOK:
		return nil, errorf(KindRangeUnsupported, "", "GET %s %s: server returned the whole object", s.url, spec)
	case http.StatusNotFound, http.StatusGone:
		return nil, errorf(KindNotFound, "", "GET %s: %s", s.url, resp.Status)
	default:
		return nil, errorf(KindTransport, "", "GET %s %s: %s", s.url, spec, resp.Status)
	}
	if crange := resp.Header.Get("Content-Range"); crange != "" {
		if start, err := contentRangeStart(crange); err != nil || start != from {
			return nil, errorf(KindRangeUnsupported, "", "GET %s %s: unexpected Content-Range %q", s.url, spec, crange)
		}
	}
	buf := bytes.NewBuffer(make([]byte, 0, min(length, maxInitialBuffer)))
	var wr io.Writer = buf
	if s.progress && length >= s.progressMin {
		bar := progressbar.DefaultBytes(int64(length), spec)
		defer func() {
			if err := bar.Close(); err != nil {
				slog.Debug("progressbar close", "error", err)
			}
		}()
		wr = io.MultiWriter(buf, bar)
	}
	// one extra byte to detect an overlong body
	written, err := io.Copy(wr, io.LimitReader(resp.Body, int64(length)+1))
	if err != nil {
		return nil, newError(KindTransport, "", err)
	}
	slog.Debug("range read", "range", spec, "size", humanize.IBytes(uint64(written)))
	if err = checkRange(buf.Bytes(), from, to); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// contentRangeStart extracts the first byte position from "bytes start-end/size".
func contentRangeStart(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	spec, _, ok := strings.Cut(strings.TrimPrefix(value, "bytes "), "/")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	start, _, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return strconv.ParseUint(start, 10, 64)
}
