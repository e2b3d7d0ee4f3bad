package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ranges below this size do not get a progress bar
const progressMinSize = 64 * 1024

type ListCmd struct {
	ScanComment   bool          `long:"scan-comment" description:"search backward for the end of central directory (archives with comment)"`
	Headers       []string      `short:"H" long:"header" description:"custom request headers"`
	Timeout       time.Duration `long:"timeout" description:"http client timeout" env:"REMOTEZIP_TIMEOUT"`
	Progress      bool          `long:"progress" description:"show progress bar"`
	Exclude       []string      `short:"x" long:"exclude" description:"exclude files"`
	OpenTelemetry bool          `long:"opentelemetry" description:"otel trace setup"`
	S3Endpoint    string        `long:"s3-endpoint" description:"s3 compatible endpoint URL" env:"REMOTEZIP_S3_ENDPOINT"`
	S3PathStyle   bool          `long:"s3-path-style" description:"use path style s3 addressing" env:"REMOTEZIP_S3_PATH_STYLE"`

	client *http.Client
}

func (cmd *ListCmd) httpSource(ctx context.Context, u *url.URL) (RangeSource, func(), error) {
	var stop func()
	client := cmd.client
	if client == nil {
		client = &http.Client{Timeout: cmd.Timeout}
		if cmd.OpenTelemetry {
			shutdown, transport, err := init_otel(ctx, http.DefaultTransport, "remotezip")
			if err != nil {
				slog.Warn("opentelemetry initialize failed", "error", err)
			} else {
				stop = shutdown
				client.Transport = transport
			}
		}
	}
	opts := []HTTPOption{WithClient(client)}
	for _, hdr := range cmd.Headers {
		kv := strings.SplitN(hdr, ":", 2)
		if len(kv) != 2 {
			slog.Error("invalid header spec", "header", hdr)
			return nil, stop, errorf(KindInvalidInput, "input", "invalid header: %s", hdr)
		}
		opts = append(opts, WithHeader(strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])))
	}
	if cmd.Progress {
		opts = append(opts, WithProgress(progressMinSize))
	}
	return NewHTTPSource(u.String(), opts...), stop, nil
}

func (cmd *ListCmd) source(ctx context.Context, u *url.URL) (RangeSource, func(), error) {
	switch u.Scheme {
	case "http", "https":
		return cmd.httpSource(ctx, u)
	case "s3":
		client, err := NewS3Client(ctx, cmd.S3Endpoint, cmd.S3PathStyle)
		if err != nil {
			slog.Error("s3 client", "error", err)
			return nil, nil, newError(KindTransport, "s3", err)
		}
		return NewS3Source(client, u.Host, strings.TrimPrefix(u.Path, "/")), nil, nil
	case "file":
		return NewFileSource(u.Path), nil, nil
	}
	return nil, nil, errorf(KindInvalidInput, "input", "unsupported scheme %q", u.Scheme)
}

func printFileList(w io.Writer, names []string) {
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	fmt.Fprintf(w, "\nTotal files in archive: %d\n", len(names))
}

func (cmd *ListCmd) Execute(args []string) (err error) {
	init_log()
	u, err := ValidateArchiveURL(args)
	if err != nil {
		slog.Error("validate", "args", args, "error", err)
		return err
	}
	ctx := context.Background()
	src, stop, err := cmd.source(ctx, u)
	if stop != nil {
		defer stop()
	}
	if err != nil {
		return err
	}
	start := time.Now()
	names, err := ListFiles(ctx, src, ListOptions{ScanComment: cmd.ScanComment})
	if err != nil {
		slog.Error("list failed", "url", u.Redacted(), "kind", KindOf(err), "error", err)
		return err
	}
	slog.Info("listed", "url", u.Redacted(), "files", len(names), "elapsed", time.Since(start))
	printFileList(os.Stdout, exclude(names, cmd.Exclude))
	return nil
}
