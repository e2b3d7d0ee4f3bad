package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func prepare_testzip(t *testing.T) string {
	t.Helper()
	buf := &bytes.Buffer{}
	wr := zip.NewWriter(buf)
	entries := []struct {
		name   string
		method uint16
		size   int
	}{
		{"dir/", zip.Store, 0},
		{"dir/2kb.txt", zip.Deflate, 2048},
		{"512b.txt", zip.Store, 512},
	}
	for _, e := range entries {
		w, err := wr.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatal("create", e.name, err)
		}
		if _, err = w.Write([]byte(strings.Repeat("a", e.size))); err != nil {
			t.Fatal("write", e.name, err)
		}
	}
	if err := wr.Close(); err != nil {
		t.Fatal("close", err)
	}
	fname := filepath.Join(t.TempDir(), "test.zip")
	if err := os.WriteFile(fname, buf.Bytes(), 0o644); err != nil {
		t.Fatal("write file", err)
	}
	return fname
}

func TestZipList(t *testing.T) {
	fname := prepare_testzip(t)
	stdout, _ := runcmd_test(t, []string{"remotezip", "ziplist", "-f", fname}, 0)
	if !strings.Contains(stdout, "/ dir/\n") {
		t.Error("not found dir", stdout)
	}
	if !strings.Contains(stdout, "D dir/2kb.txt ") {
		t.Error("not found 2kb", stdout)
	}
	if !strings.Contains(stdout, "! 512b.txt 512 512\n") {
		t.Error("not found 512b", stdout)
	}
}

func TestZipListHuman(t *testing.T) {
	fname := prepare_testzip(t)
	stdout, _ := runcmd_test(t, []string{"remotezip", "ziplist", "--human", "-f", fname}, 0)
	if !strings.Contains(stdout, "2.0 KiB\n") {
		t.Error("human size", stdout)
	}
}

func TestZipListURL(t *testing.T) {
	data, err := os.ReadFile(prepare_testzip(t))
	if err != nil {
		t.Fatal("read", err)
	}
	server, count := rangeServer(t, data)
	stdout, _ := runcmd_test(t, []string{"remotezip", "ziplist", "--buffer-size", "64", "-f", server.URL + "/test.zip"}, 0)
	if !strings.Contains(stdout, "! 512b.txt 512 512\n") {
		t.Error("not found 512b", stdout)
	}
	if atomic.LoadInt32(count) == 0 {
		t.Error("no request")
	}
	_, stderr := runcmd_test(t, []string{"remotezip", "ziplist", "--watch", "-f", server.URL + "/test.zip"}, 1)
	if !strings.Contains(stderr, "watch needs a local archive") {
		t.Error("watch url", stderr)
	}
}

func TestZipListError(t *testing.T) {
	_, stderr := runcmd_test(t, []string{"remotezip", "ziplist", "-f", "not-found.zip"}, 1)
	if !strings.Contains(stderr, "no such file or directory") {
		t.Error("not found", stderr)
	}
}

func TestZipListWatch(t *testing.T) {
	fname := prepare_testzip(t)
	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal("read", err)
	}
	cmd := ZipList{Archive: fname}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var called int32
	done := make(chan error, 1)
	go func() {
		done <- cmd.watch(ctx, func() {
			if atomic.AddInt32(&called, 1) == 1 {
				cancel()
			}
		})
	}()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for atomic.LoadInt32(&called) == 0 && ctx.Err() == nil {
		<-ticker.C
		if err := os.WriteFile(fname, data, 0o644); err != nil {
			t.Error("rewrite", err)
		}
	}
	if err := <-done; err != nil {
		t.Error("watch", err)
	}
	if atomic.LoadInt32(&called) == 0 {
		t.Error("not called")
	}
}
