// Command spac inspects, encodes and sizes packed payloads of types
// imported from a WIT schema.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/spac/codec"
	"github.com/wippyai/spac/internal/config"
	"github.com/wippyai/spac/witschema"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	config      string
	schema      string
	typ         string
	format      string
	interactive bool
	verbose     bool
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("spac", pflag.ContinueOnError)
	flagSet.StringVar(&opts.config, "config", "", "path to spac.yaml (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.schema, "schema", "", "WIT source or JSON file to import types from")
	flagSet.StringVar(&opts.typ, "type", "", "root type name, or a WIT primitive such as u32")
	flagSet.StringVar(&opts.format, "format", "", "payload format: hex, base64 or raw")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "browse inspect output in a scrollable viewer")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log schema loading and registrations")
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stdout, flagSet)
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stdout, flagSet)
		return fmt.Errorf("missing command")
	}

	if opts.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
		codec.SetLogger(logger)
		witschema.SetLogger(logger)
	}

	cfg, err := loadConfig(opts, flagSet)
	if err != nil {
		return err
	}

	command, rest := rest[0], rest[1:]
	if command == "types" {
		s, err := openSchema(cfg)
		if err != nil {
			return err
		}
		return s.printTypes(stdout)
	}

	if len(rest) != 1 {
		return fmt.Errorf("%s takes exactly one argument", command)
	}
	s, err := openSession(cfg)
	if err != nil {
		return err
	}

	switch command {
	case "inspect":
		payload, err := readInput(rest[0], stdin)
		if err != nil {
			return err
		}
		data, err := parsePayload(payload, cfg.Format)
		if err != nil {
			return err
		}
		if opts.interactive {
			if f, ok := stdout.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
				return fmt.Errorf("interactive mode needs a terminal")
			}
			return runInteractive(s, data)
		}
		return s.inspect(stdout, data)

	case "encode":
		v, err := s.readValue(rest[0], stdin)
		if err != nil {
			return err
		}
		return s.encode(stdout, v)

	case "size":
		v, err := s.readValue(rest[0], stdin)
		if err != nil {
			return err
		}
		return s.size(stdout, v)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options, flagSet *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.config != "" {
		cfg, err = config.LoadFile(opts.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("schema") {
		cfg.Schema = opts.schema
	}
	if flagSet.Changed("type") {
		cfg.Type = opts.typ
	}
	if flagSet.Changed("format") {
		cfg.Format = opts.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `spac inspects, encodes and sizes packed payloads.

Usage:
  spac [flags] types
  spac [flags] inspect <payload | @file | ->
  spac [flags] encode <value.jsonc | ->
  spac [flags] size <value.jsonc | ->

Flags:
%s`, flagSet.FlagUsages())
}
