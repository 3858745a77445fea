package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"building-converter/internal/common/logging"
	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/library"
	"building-converter/internal/converter/mapper"
	"building-converter/internal/converter/models"
	"building-converter/internal/converter/watch"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	opts, exit, err := parseArgs(args, stderr)
	if err != nil || exit {
		return err
	}

	log := logging.New(opts.LogLevel, opts.LogFormat, stderr)
	ctx = logging.WithLogger(ctx, log)

	lib, closeLib, err := openLibrary(ctx, opts.Library)
	if err != nil {
		return err
	}
	defer closeLib()

	converter := mapper.New(lib, mapper.Options{Scale: opts.Scale})
	convertOnce := func(ctx context.Context) error {
		return convertFile(ctx, converter, opts, stdout)
	}

	if !opts.Watch {
		return convertOnce(ctx)
	}

	if err := convertOnce(ctx); err != nil {
		log.Error("initial conversion failed", "error", err)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return watch.Watch(ctx, opts.Path, convertOnce)
}

func convertFile(ctx context.Context, converter *mapper.Converter, opts *options, stdout io.Writer) error {
	f, err := os.Open(opts.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	building, err := converter.Convert(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Path, err)
	}

	out := stdout
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	if err := encode(out, opts.Format, building); err != nil {
		return err
	}

	if opts.SVG != "" {
		svg, err := mapper.NewRenderer().Render(building)
		if err != nil {
			return fmt.Errorf("render plan: %w", err)
		}
		if err := os.WriteFile(opts.SVG, []byte(svg), 0o644); err != nil {
			return err
		}
	}

	logging.FromContext(ctx).Info("converted",
		"path", opts.Path,
		"spaces", len(building.Spaces),
		"surfaces", len(building.Surfaces),
		"openings", len(building.Openings))
	return nil
}

func encode(w io.Writer, format string, b *models.Building) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// openLibrary picks the library backend from the file extension.
func openLibrary(ctx context.Context, path string) (graph.Library, func(), error) {
	noop := func() {}
	if path == "" {
		return nil, noop, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		db, err := library.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		lib := library.NewSQLite(db)
		if err := lib.Init(ctx); err != nil {
			_ = lib.Close()
			return nil, noop, err
		}
		return lib, func() { _ = lib.Close() }, nil
	}

	lib, err := library.LoadFile(path)
	if err != nil {
		return nil, noop, err
	}
	return lib, noop, nil
}
