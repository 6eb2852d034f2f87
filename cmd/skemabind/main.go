package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
	"github.com/reoring/skemabind/i18n"
	"github.com/reoring/skemabind/schemafile"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "validate":
		return validateCmd(args[1:], stdin, stdout, stderr)
	case "roundtrip":
		return roundtripCmd(args[1:], stdin, stdout, stderr)
	case "jsonschema":
		return jsonschemaCmd(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `skemabind CLI

Usage:
  skemabind validate   -schema schema.yaml [-many] [-format json|yaml] [-fail-fast] [file ...]
  skemabind roundtrip  -schema schema.yaml [-format json|yaml] [file ...]
  skemabind jsonschema -schema schema.yaml [-o out.json]

Files default to standard input ("-"). The format follows the file extension
unless -format is set. Log level comes from -log-level or LOGGING_LEVEL.`)
}

// common holds the flags shared by every sub-command.
type common struct {
	schema   string
	name     string
	unknown  string
	format   string
	lang     string
	logLevel string
	noColor  bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.schema, "schema", "", "schema document (YAML or JSON)")
	fs.StringVar(&c.name, "name", "", "schema name (defaults to the document title)")
	fs.StringVar(&c.unknown, "unknown", "", "unknown key policy for objects that do not set one: preserve, strip or strict")
	fs.StringVar(&c.format, "format", "", "input format: json or yaml (defaults to the file extension)")
	fs.StringVar(&c.lang, "lang", "en", "message language: en or ja")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR); falls back to LOGGING_LEVEL")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
}

// env is the state prepared from the common flags.
type env struct {
	log     *zap.Logger
	schema  *skemabind.Schema
	binding *skemabind.Binding[skemabind.Record]
	out     *printer
	format  string
}

func (c *common) setup(stdout, stderr io.Writer) (*env, error) {
	if c.schema == "" {
		return nil, errors.New("-schema is required")
	}
	policy, ok := skemabind.ParseUnknownPolicy(c.unknown)
	if !ok {
		return nil, fmt.Errorf("unknown policy %q", c.unknown)
	}
	switch c.format {
	case "", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported format %q", c.format)
	}
	i18n.SetLanguage(c.lang)
	log := newLogger(levelFromEnv(c.logLevel), stderr)

	s, diag, err := schemafile.Load(c.schema, schemafile.Options{Name: c.name, Unknown: policy})
	if err != nil {
		return nil, err
	}
	for _, w := range diag.Warnings() {
		log.Warn("schema", zap.String("file", c.schema), zap.String("warning", w))
	}
	b, err := skemabind.Bind[skemabind.Record](s, skemabind.WithRegistry(nil), skemabind.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.Debug("schema loaded", zap.String("schema", s.Name()), zap.Strings("fields", s.Keys()))
	return &env{log: log, schema: s, binding: b, out: newPrinter(stdout, c.noColor), format: c.format}, nil
}

// input is one document named on the command line.
type input struct {
	name string
	data []byte
	yaml bool
}

func (e *env) readInputs(files []string, stdin io.Reader) ([]input, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	out := make([]input, 0, len(files))
	for _, f := range files {
		var (
			data []byte
			err  error
		)
		if f == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f)
		}
		if err != nil {
			return nil, err
		}
		isYAML := e.format == "yaml"
		if e.format == "" {
			ext := strings.ToLower(filepath.Ext(f))
			isYAML = ext == ".yaml" || ext == ".yml"
		}
		name := f
		if f == "-" {
			name = "<stdin>"
		}
		out = append(out, input{name: name, data: data, yaml: isYAML})
	}
	return out, nil
}

func (in input) decode() (map[string]any, error) {
	if in.yaml {
		return format.DecodeYAML(in.data)
	}
	return format.DecodeJSON(in.data)
}

func (in input) decodeMany() ([]map[string]any, error) {
	if in.yaml {
		return format.DecodeYAMLMany(in.data)
	}
	return format.DecodeJSONMany(in.data)
}

func validateCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	many := fs.Bool("many", false, "each document is an array of objects")
	failFast := fs.Bool("fail-fast", false, "stop at the first issue of each document")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	e, err := c.setup(stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "validate: %v\n", err)
		return exitUsage
	}
	defer func() { _ = e.log.Sync() }()
	inputs, err := e.readInputs(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "validate: %v\n", err)
		return exitUsage
	}

	ctx := skemabind.WithFailFast(context.Background(), *failFast)
	code := exitOK
	for _, in := range inputs {
		var err error
		if *many {
			var docs []map[string]any
			if docs, err = in.decodeMany(); err == nil {
				_, err = e.binding.FromMappingMany(ctx, docs)
			}
		} else {
			var doc map[string]any
			if doc, err = in.decode(); err == nil {
				_, err = e.binding.FromMapping(ctx, doc)
			}
		}
		if err != nil {
			code = exitInvalid
			e.out.failure(in.name, err)
			continue
		}
		e.out.ok(in.name)
	}
	return code
}

func roundtripCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("roundtrip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	e, err := c.setup(stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "roundtrip: %v\n", err)
		return exitUsage
	}
	defer func() { _ = e.log.Sync() }()
	inputs, err := e.readInputs(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "roundtrip: %v\n", err)
		return exitUsage
	}

	ctx := context.Background()
	code := exitOK
	for _, in := range inputs {
		doc, err := in.decode()
		if err == nil {
			var rec *skemabind.Record
			if rec, err = e.binding.FromMapping(ctx, doc); err == nil {
				var out map[string]any
				if out, err = e.binding.ToMapping(ctx, rec); err == nil {
					var changed bool
					changed, err = e.out.compare(in.name, doc, out)
					if changed {
						code = exitInvalid
					}
				}
			}
		}
		if err != nil {
			code = exitInvalid
			e.out.failure(in.name, err)
		}
	}
	return code
}

func jsonschemaCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	out := fs.String("o", "", "output file (defaults to standard output)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	e, err := c.setup(stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "jsonschema: %v\n", err)
		return exitUsage
	}
	defer func() { _ = e.log.Sync() }()
	data, err := format.EncodeJSONIndent(e.schema.JSONSchema())
	if err != nil {
		fmt.Fprintf(stderr, "jsonschema: %v\n", err)
		return exitInvalid
	}
	data = append(data, '\n')
	if *out == "" {
		_, _ = stdout.Write(data)
		return exitOK
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintf(stderr, "jsonschema: creating output dir: %v\n", err)
		return exitInvalid
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "jsonschema: writing output: %v\n", err)
		return exitInvalid
	}
	e.log.Info("json schema written", zap.String("file", *out))
	return exitOK
}
