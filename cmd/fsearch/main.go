package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/logger"
)

const usage = `usage: fsearch [-config file] <command> [args]

commands:
  scan <root>                          list regular files under root
  stats <path>...                      print size, line count and encoding
  read <path>                          print decoded file content
  search [flags] <query> [path...]     search files (or -root) for query
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(cfg.Scanner, engine.WithTracing(cfg.Tracing.Enabled))
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	var out any
	switch cmd {
	case "scan":
		if len(rest) != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		out, err = eng.ScanDirectory(ctx, rest[0])
	case "stats":
		if len(rest) == 0 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		out = eng.GetFileStats(ctx, rest)
	case "read":
		if len(rest) != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		out, err = eng.ReadFile(ctx, rest[0])
	case "search":
		out, err = runSearch(ctx, eng, rest, stderr)
		if errors.Is(err, errUsage) {
			return 2
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "fsearch %s: %s\n", cmd, apperrors.Message(err))
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "writing output: %v\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func runSearch(ctx context.Context, eng *engine.Engine, args []string, stderr io.Writer) ([]model.SearchResult, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	caseSensitive := fs.Bool("case", false, "match case")
	wholeWord := fs.Bool("word", false, "match whole words (literal queries only)")
	useRegex := fs.Bool("regex", false, "treat the query as a regular expression")
	root := fs.String("root", "", "search every file under this directory")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return nil, errUsage
	}

	opts := model.SearchOptions{
		Query:         fs.Arg(0),
		CaseSensitive: *caseSensitive,
		WholeWord:     *wholeWord,
		UseRegex:      *useRegex,
	}
	paths := fs.Args()[1:]
	if *root != "" {
		files, err := eng.ScanDirectory(ctx, *root)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "search: no paths given; pass paths or -root")
		return nil, errUsage
	}
	return eng.SearchInFiles(ctx, paths, opts)
}
