// Package main provides a command-line front end that composes a single
// request file without running the HTTP server.
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
	"strings"
	"syscall"

	"github.com/maauso/mediacomposer/internal/bootstrap"
	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/config"
	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// planOutput stands in for the destination when planning without one.
const planOutput = "output.mp4"

var errRequestRequired = errors.New("-request is required")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	request string
	out     string
	plan    bool
	publish bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.StringVar(&opts.request, "request", "", "composition request file (YAML or JSON)")
	fs.StringVar(&opts.out, "out", "", "output file, overrides output_path in the request")
	fs.BoolVar(&opts.plan, "plan", false, "print the filter graph and ffmpeg arguments without encoding")
	fs.BoolVar(&opts.publish, "publish", false, "upload the result to S3 after encoding")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.request == "" {
		return opts, errRequestRequired
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	req, err := loadRequest(opts.request)
	if err != nil {
		return err
	}
	if opts.out != "" {
		req.OutputPath = opts.out
	}
	req.Publish = req.Publish || opts.publish

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger()

	var publisher compose.Publisher
	if req.Publish {
		if _, publisher, err = bootstrap.NewStorage(cfg, logger); err != nil {
			return err
		}
	}
	composer := bootstrap.NewComposer(cfg, logger, publisher)

	if opts.plan {
		program, err := composer.Plan(ctx, req)
		if err != nil {
			return err
		}
		output := req.OutputPath
		if output == "" {
			output = planOutput
		}
		ffArgs, err := media.NewFFmpegEncoder(cfg.FFmpegPath).Args(program.EncodeRequest(composer.Options().Encoding, output))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n\n%s %s\n", program.Graph, cfg.FFmpegPath, shellJoin(ffArgs))
		return err
	}

	res, err := composer.Compose(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func loadRequest(path string) (timeline.Request, error) {
	f, err := os.Open(path) // #nosec G304 - path is a command-line argument
	if err != nil {
		return timeline.Request{}, fmt.Errorf("open request: %w", err)
	}
	defer func() { _ = f.Close() }()
	return timeline.DecodeRequest(f)
}

// shellJoin quotes arguments so the printed command can be pasted into a shell.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && !strings.ContainsAny(a, " \t\n'\"\\$;&|<>()[]*?!`{}#~") {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
