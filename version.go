package main

import (
	"fmt"
	"io"
	"os"
)

type VersionCmd struct {
	FullVersion bool `long:"full-version"`
}

var (
	version = "dev"
	commit  = "dummy_hash"
	date    = "dummy_date"
)

func (cmd VersionCmd) print(w io.Writer) {
	if cmd.FullVersion {
		fmt.Fprintln(w, "remotezip", version, "hash", commit, "build", date)
		return
	}
	fmt.Fprintln(w, "remotezip", version)
}

func (cmd VersionCmd) Execute(args []string) error {
	cmd.print(os.Stdout)
	return nil
}
