package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/doctools/internal/config"
	"github.com/samvad-hq/doctools/internal/logger"
	"github.com/samvad-hq/doctools/pkg/doctools"
)

const usage = "usage: doctools [flags] <images|thumbnail|ocr> <file.pdf>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "doctools: %v\n", err)
		os.Exit(1)
	}
}

// run executes one operation and writes the status code and body to stdout.
func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	flags := pflag.NewFlagSet("doctools", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("url", "", "document tools base URL (env DOCTOOLS_URL)")
	flags.String("key", "", "document tools API key (env DOCTOOLS_KEY)")
	flags.String("log_level", "", "log level: debug, info, warn, error")
	resolution := flags.Int("resolution", 0, "render resolution in dpi (images, thumbnail)")
	output := flags.String("output", "", "image format (images, thumbnail)")
	flags.Usage = func() {
		fmt.Fprintln(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return errors.New("expected an operation and a file")
	}
	op, path := strings.ToLower(flags.Arg(0)), flags.Arg(1)

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.InitTo(cfg, zapcore.AddSync(stderr))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	tools := doctools.NewPDFTools(doctools.New(cfg.APIURL, cfg.APIKey, doctools.WithLogger(log)))
	opts := doctools.ImageOptions{Resolution: *resolution, Output: *output}

	var resp *doctools.Response
	switch op {
	case "images":
		resp, err = tools.ImagesFromPath(ctx, path, opts)
	case "thumbnail":
		resp, err = tools.ThumbnailFromPath(ctx, path, opts)
	case "ocr":
		if *resolution != 0 || *output != "" {
			return errors.New("ocr does not take --resolution or --output")
		}
		resp, err = tools.OCRFromPath(ctx, path)
	default:
		flags.Usage()
		return fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "status: %d\n", resp.StatusCode())
	fmt.Fprintln(stdout, resp.Body())
	return nil
}
