package main

import (
	"fmt"
	"os"

	"log/slog"

	"github.com/jessevdk/go-flags"
)

var globalOption struct {
	Verbose bool `short:"v" long:"verbose" description:"show verbose logs"`
	Quiet   bool `short:"q" long:"quiet" description:"suppress logs"`
	JsonLog bool `long:"json-log" description:"use json format for logging" env:"REMOTEZIP_JSON_LOG"`
}

func init_log() {
	var level slog.Level = slog.LevelInfo
	if globalOption.Verbose {
		level = slog.LevelDebug
	} else if globalOption.Quiet {
		level = slog.LevelWarn
	}
	if globalOption.JsonLog {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
}

func run(args []string) int {
	var err error
	var listcmd ListCmd
	var ziplist ZipList
	var versioncmd VersionCmd
	globalOption.Verbose, globalOption.Quiet, globalOption.JsonLog = false, false, false
	parser := flags.NewParser(&globalOption, flags.HelpFlag|flags.PassDoubleDash)
	_, err = parser.AddCommand("list", "list remote zip", "list files in a remote zip without downloading it", &listcmd)
	if err != nil {
		slog.Error("addcommand list", "error", err)
		panic(err)
	}
	_, err = parser.AddCommand("ziplist", "zip list", "list zip entries with method and sizes", &ziplist)
	if err != nil {
		slog.Error("addcommand ziplist", "error", err)
		panic(err)
	}
	_, err = parser.AddCommand("version", "show version", "show version", &versioncmd)
	if err != nil {
		slog.Error("addcommand version", "error", err)
		panic(err)
	}
	if _, err := parser.ParseArgs(args); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, fe.Message)
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
