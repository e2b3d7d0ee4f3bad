//go:build !otel

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

func init_otel(ctx context.Context, base http.RoundTripper, name string) (func(), http.RoundTripper, error) {
	slog.Info("this binary does not supports opentelemetry")
	return nil, nil, errors.ErrUnsupported
}
