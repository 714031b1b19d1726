package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/markis/gh-stream/internal/args"
	"github.com/markis/gh-stream/internal/chunk"
	"github.com/markis/gh-stream/internal/client"
	"github.com/markis/gh-stream/internal/config"
	"github.com/markis/gh-stream/internal/decode"
	"github.com/markis/gh-stream/internal/render"
	"github.com/markis/gh-stream/internal/stream"
)

// main loads the configuration, parses arguments and streams the source.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	arguments, err := args.ParseArgs(*cfg, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := run(ctx, arguments); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, arguments args.Arguments) error {
	log := newLogger(arguments.Verbose)

	in, err := openInput(ctx, arguments, log)
	if err != nil {
		return err
	}
	defer in.Close()

	if arguments.MediaType != "" {
		if err := in.SetChunkType(arguments.MediaType); err != nil {
			return err
		}
	}

	pump := stream.NewPump[string](ctx)
	go pump.Run(in)

	renderer := render.NewTerminalRenderer(os.Stdout, os.Stderr, arguments.Plain, arguments.Raw)
	return renderer.Render(pump.Chunks())
}

// openInput builds the chunked input for the requested source: a URL, a
// file path, or "-" for stdin.
func openInput(ctx context.Context, arguments args.Arguments, log *slog.Logger) (*chunk.Input[string], error) {
	delimiter := arguments.Delimiter
	if arguments.SSE || arguments.Chat {
		delimiter = "\n\n"
	}
	parser := chunk.NewParser(delimiter)

	var dec chunk.Decoder[string]
	switch {
	case arguments.Chat:
		dec = decode.ChatText()
	case arguments.SSE:
		dec = decode.SSEData()
	default:
		dec = decode.Text()
	}

	if strings.HasPrefix(arguments.Source, "http://") || strings.HasPrefix(arguments.Source, "https://") {
		resp, err := client.Open(ctx, arguments.Source, arguments.SSE || arguments.Chat, log)
		if err != nil {
			return nil, err
		}
		return client.ChunkedInput(resp, dec, parser, log), nil
	}

	var src io.ReadCloser
	if arguments.Source == "-" {
		src = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(arguments.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", arguments.Source, err)
		}
		src = f
	}

	return chunk.NewInput(src, dec,
		chunk.WithParser(parser),
		chunk.WithLogger(log),
	), nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}
