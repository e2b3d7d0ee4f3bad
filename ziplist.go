package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/snabb/httpreaderat"
)

type ZipList struct {
	Archive    string `short:"f" long:"archive" description:"archive file or URL" env:"REMOTEZIP_ARCHIVE" required:"yes"`
	Human      bool   `long:"human" description:"human readable sizes"`
	BufferSize int    `long:"buffer-size" description:"read buffer for URL" default:"1048576"`
	Watch      bool   `long:"watch" description:"list again when the archive is written"`
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

func (cmd *ZipList) open() (*zip.Reader, func() error, error) {
	if !isURL(cmd.Archive) {
		zf, err := zip.OpenReader(cmd.Archive)
		if err != nil {
			return nil, nil, err
		}
		return &zf.Reader, zf.Close, nil
	}
	req, err := http.NewRequest(http.MethodGet, cmd.Archive, nil)
	if err != nil {
		return nil, nil, err
	}
	htrdr, err := httpreaderat.New(nil, req, nil)
	if err != nil {
		return nil, nil, err
	}
	bhtrdr := bufra.NewBufReaderAt(htrdr, cmd.BufferSize)
	zr, err := zip.NewReader(bhtrdr, htrdr.Size())
	if err != nil {
		return nil, nil, err
	}
	return zr, func() error { return nil }, nil
}

func (cmd *ZipList) size(v uint64) string {
	if cmd.Human {
		return humanize.IBytes(v)
	}
	return strconv.FormatUint(v, 10)
}

func (cmd *ZipList) list(w io.Writer) error {
	zipfile, closer, err := cmd.open()
	if err != nil {
		slog.Error("open error", "error", err)
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			slog.Error("close", "archive", cmd.Archive, "error", err)
		}
	}()
	for _, i := range zipfile.File {
		if i.FileInfo().IsDir() {
			fmt.Fprintln(w, "/", i.Name)
		} else if i.Method != zip.Deflate {
			fmt.Fprintln(w, "!", i.Name, cmd.size(i.CompressedSize64), cmd.size(i.UncompressedSize64))
		} else {
			fmt.Fprintln(w, "D", i.Name, cmd.size(i.CompressedSize64), cmd.size(i.UncompressedSize64))
		}
	}
	return nil
}

// watch calls fn for every write to the archive until ctx is done.
func (cmd *ZipList) watch(ctx context.Context, fn func()) error {
	wt, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("watcher", "error", err)
		return err
	}
	defer wt.Close()
	if err = wt.Add(cmd.Archive); err != nil {
		slog.Error("watcher add", "error", err)
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-wt.Events:
			if !ok {
				slog.Error("cannot process event", "event", event)
				return nil
			}
			slog.Debug("got watcher event", "event", event, "op", event.Op.String())
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Info("modified", "name", event.Name)
				fn()
			}
		case err, ok := <-wt.Errors:
			if !ok {
				slog.Error("cannot process error", "error", err)
				return nil
			}
			slog.Info("got watcher error", "error", err)
		}
	}
}

func (cmd *ZipList) Execute(args []string) (err error) {
	init_log()
	if err = cmd.list(os.Stdout); err != nil {
		return err
	}
	if !cmd.Watch {
		return nil
	}
	if isURL(cmd.Archive) {
		return errors.New("watch needs a local archive")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cmd.watch(ctx, func() {
		if err := cmd.list(os.Stdout); err != nil {
			slog.Warn("list again", "error", err)
		}
	})
}
