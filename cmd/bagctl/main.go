package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/bagctl/internal/config"
	"github.com/danmuck/bagctl/internal/inspect"
	"github.com/danmuck/bagctl/internal/logging"
	"github.com/danmuck/bagctl/internal/observability"
	"github.com/danmuck/bagctl/internal/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "bagctl: %v\n", err)
		os.Exit(1)
	}
}

// run writes the summary to out; logs and flag diagnostics go to errOut.
func run(args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("bagctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "path to bagctl TOML config")
	input := fs.String("input", "", "file holding a raw record stream to inspect")
	serve := fs.Bool("serve", false, "run the inspection HTTP server")
	messagesOnly := fs.Bool("messages-only", false, "walk chunks with the messages-only iterator")
	topics := fs.String("topics", "", "comma separated topics to report")
	digest := fs.Bool("digest", false, "report an xxhash64 digest per message")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	lc := cfg.LoggingConfig()
	lc.Out = errOut
	logging.ApplyEnvOverrides(&lc)
	observability.InitLogger("bagctl", lc)

	if *serve {
		return server.New(cfg).Serve()
	}
	if *input == "" {
		return errors.New("one of -input or -serve is required")
	}

	opts := inspectOptions(cfg, fs, *messagesOnly, *topics, *digest)
	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	summary, runErr := inspect.Run(data, opts)
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(out, summary)
	}
	return runErr
}

// inspectOptions applies flags that were set explicitly on top of the
// config file.
func inspectOptions(cfg config.Config, fs *flag.FlagSet, messagesOnly bool, topics string, digest bool) inspect.Options {
	opts := inspect.Options{
		MessagesOnly: cfg.Inspect.MessagesOnly,
		Topics:       cfg.Inspect.Topics,
		Digest:       cfg.Inspect.Digest,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "messages-only":
			opts.MessagesOnly = messagesOnly
		case "topics":
			opts.Topics = normalizeList(strings.Split(topics, ","))
		case "digest":
			opts.Digest = digest
		}
	})
	return opts
}

func printSummary(out io.Writer, s *inspect.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintf(out, "chunks:      %d\n", len(s.Chunks))
	fmt.Fprintf(out, "messages:    %d\n", s.Messages)
	fmt.Fprintf(out, "skipped:     %d\n", s.Skipped)
	if s.Start != nil && s.End != nil {
		fmt.Fprintf(out, "start:       %s\n", s.Start.Format(time.RFC3339Nano))
		fmt.Fprintf(out, "end:         %s\n", s.End.Format(time.RFC3339Nano))
	}
	for _, c := range s.Connections {
		topic := c.Topic
		if topic == "" {
			topic = "?"
		}
		fmt.Fprintf(out, "conn %-4d %-32s %-28s %d msgs\n", c.ID, topic, c.Type, c.Messages)
	}
	for _, d := range s.Digests {
		fmt.Fprintf(out, "msg conn=%d size=%d xxh64=%s\n", d.Conn, d.Size, d.Digest)
	}
}
