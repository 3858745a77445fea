package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError carries the process exit code for a failed invocation.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	Path      string
	Scale     float64
	Format    string
	Output    string
	SVG       string
	Library   string
	Watch     bool
	LogLevel  string
	LogFormat string
}

// parseArgs returns the options, or true when the program should exit cleanly.
func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("bdlconv", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
bdlconv - convert a BDL building description into a building model.

Usage:
  bdlconv [options] FILE

Options:
`)
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.Float64Var(&opts.Scale, "scale", 1, "Multiply every exported coordinate by this factor.")
	fs.StringVar(&opts.Format, "format", "json", "Output format: 'json' or 'yaml'.")
	fs.StringVar(&opts.Output, "o", "", "Write the model to this file instead of stdout.")
	fs.StringVar(&opts.SVG, "svg", "", "Also write an SVG plan to this file.")
	fs.StringVar(&opts.Library, "library", "", "Material library: a sqlite .db file or a BDL file.")
	fs.BoolVar(&opts.Watch, "watch", false, "Convert again whenever FILE changes.")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "Log output format: 'text' or 'json'.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, true, nil
	}
	opts.Path = fs.Arg(0)

	opts.Format = strings.ToLower(opts.Format)
	if opts.Format != "json" && opts.Format != "yaml" {
		return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'json' or 'yaml'"}
	}
	if opts.Scale <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid scale: must be positive"}
	}
	opts.LogFormat = strings.ToLower(opts.LogFormat)
	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	return opts, false, nil
}
