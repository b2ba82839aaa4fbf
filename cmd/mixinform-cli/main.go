// mixinform-cli evaluates, searches, exports and interactively fills mixin
// schemas loaded from a file or URL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-mixinform/internal/cliutil"
	"github.com/goliatone/go-mixinform/pkg/codec"
	"github.com/goliatone/go-mixinform/pkg/engine"
	"github.com/goliatone/go-mixinform/pkg/export"
	"github.com/goliatone/go-mixinform/pkg/prompt"
	"github.com/goliatone/go-mixinform/pkg/schema"
	"github.com/goliatone/go-mixinform/pkg/store"
)

type command struct {
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"evaluate": {"evaluate a schema for the given active mixins and values", runEvaluate},
	"search":   {"list the mixins a field value could trigger", runSearch},
	"export":   {"export the evaluated form as an OpenAPI document", runExport},
	"fill":     {"fill a form interactively", runFill},
	"convert":  {"re-encode a schema as json, jsonc, yaml or cbor", runConvert},
}

var commandOrder = []string{"evaluate", "search", "export", "fill", "convert"}

type environment struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	env := &environment{stdout: stdout, stderr: stderr}
	return cmd.run(ctx, env, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: mixinform-cli <command> [flags] <schema file or URL>\n\nCommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nRun 'mixinform-cli <command> --help' for command flags.\n")
}

// common carries the flags every command shares.
type common struct {
	log     cliutil.LogFlags
	timeout time.Duration
}

func newFlagSet(name string, env *environment, c *common) *pflag.FlagSet {
	fs := pflag.NewFlagSet("mixinform-cli "+name, pflag.ContinueOnError)
	fs.SetOutput(env.stderr)
	c.log.AddFlags(fs)
	fs.DurationVar(&c.timeout, "http-timeout", 10*time.Second, "timeout for schemas loaded over HTTP")
	return fs
}

// parse parses args, sets up logging and returns the single schema argument.
func parse(fs *pflag.FlagSet, env *environment, c *common, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	logger, err := c.log.Logger(env.stderr)
	if err != nil {
		return "", err
	}
	env.logger = logger

	rest := fs.Args()
	if len(rest) != 1 {
		return "", fmt.Errorf("expected exactly one schema argument, got %d", len(rest))
	}
	return rest[0], nil
}

func loadSchema(ctx context.Context, env *environment, c common, arg string) (schema.Schema, error) {
	src, err := store.ParseSource(arg)
	if err != nil {
		return schema.Schema{}, err
	}
	loader := store.NewLoader(store.WithHTTPFallback(c.timeout))
	s, err := loader.Load(ctx, src)
	if err != nil {
		return schema.Schema{}, err
	}
	env.logger.Debug("schema loaded",
		"source", src.Location(),
		"mixins", len(s.Mixins),
		"roots", len(s.RootMixins),
	)
	return s, nil
}

func newEngine(env *environment, s schema.Schema, maxRounds int) (*engine.Engine, error) {
	return engine.New(s, engine.WithMaxRounds(maxRounds), engine.WithLogger(env.logger))
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func runEvaluate(ctx context.Context, env *environment, args []string) error {
	var (
		c         common
		form      cliutil.FormFlags
		roots     bool
		output    string
		maxRounds int
	)
	fs := newFlagSet("evaluate", env, &c)
	form.AddFlags(fs)
	fs.BoolVar(&roots, "roots", false, "seed the active list with every root mixin")
	fs.StringVar(&output, "output", "json", "output format: json, yaml or cbor")
	fs.IntVar(&maxRounds, "max-rounds", engine.DefaultMaxRounds, "cap on fixed-point rounds")

	arg, err := parse(fs, env, &c, args)
	if err != nil {
		return err
	}
	format, err := codec.Lookup(output)
	if err != nil {
		return err
	}
	s, err := loadSchema(ctx, env, c, arg)
	if err != nil {
		return err
	}
	values, err := form.FieldValues()
	if err != nil {
		return err
	}
	e, err := newEngine(env, s, maxRounds)
	if err != nil {
		return err
	}

	active := form.Active
	if roots {
		active = append(append([]string{}, e.RootMixins()...), active...)
	}
	state := e.Evaluate(active, values)
	if !state.Converged {
		env.logger.Warn("evaluation stopped at the round cap", "max_rounds", maxRounds)
	}

	data, err := codec.EncodeFormState(format, state)
	if err != nil {
		return err
	}
	_, err = env.stdout.Write(data)
	return err
}

func runSearch(ctx context.Context, env *environment, args []string) error {
	var (
		c      common
		active []string
		query  engine.Query
		value  string
	)
	fs := newFlagSet("search", env, &c)
	fs.StringVar(&query.Field, "field", "", "field whose triggers are searched (required)")
	fs.StringVar(&value, "value", "", "exact value; only eq and in triggers match")
	fs.StringVarP(&query.Prefix, "query", "q", "", "case-insensitive mixin name prefix")
	fs.StringSliceVar(&active, "active", nil, "active mixins used to preview intersection fields")

	arg, err := parse(fs, env, &c, args)
	if err != nil {
		return err
	}
	if query.Field == "" {
		return errors.New("--field is required")
	}
	if value != "" {
		query.Value = cliutil.ParseScalar(value)
	}
	query.Active = active

	s, err := loadSchema(ctx, env, c, arg)
	if err != nil {
		return err
	}
	e, err := newEngine(env, s, engine.DefaultMaxRounds)
	if err != nil {
		return err
	}

	found := e.Discover(query)
	bundles := make([]map[string]any, 0, len(found.Bundles))
	for _, b := range found.Bundles {
		bundle := map[string]any{"name": b.Name, "fields": fieldMaps(b.Fields)}
		if len(b.Preview) > 0 {
			bundle["preview"] = fieldMaps(b.Preview)
		}
		bundles = append(bundles, bundle)
	}
	return writeJSON(env.stdout, map[string]any{
		"bundles":             bundles,
		"intersection_fields": fieldMaps(found.IntersectionFields),
	})
}

func fieldMaps(fields []schema.Field) []map[string]any {
	out := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, codec.FieldToMap(f))
	}
	return out
}

func runExport(ctx context.Context, env *environment, args []string) error {
	var (
		c        common
		form     cliutil.FormFlags
		name     string
		version  string
		validate bool
	)
	fs := newFlagSet("export", env, &c)
	form.AddFlags(fs)
	fs.StringVar(&name, "name", "", "document title (defaults to the schema file name)")
	fs.StringVar(&version, "version", "1.0.0", "document version")
	fs.BoolVar(&validate, "validate", false, "validate the supplied values against the exported form")

	arg, err := parse(fs, env, &c, args)
	if err != nil {
		return err
	}
	s, err := loadSchema(ctx, env, c, arg)
	if err != nil {
		return err
	}
	values, err := form.FieldValues()
	if err != nil {
		return err
	}
	e, err := newEngine(env, s, engine.DefaultMaxRounds)
	if err != nil {
		return err
	}
	if name == "" {
		name = schemaName(arg)
	}

	state := e.Evaluate(form.Active, values)
	if validate {
		if err := export.ValidateValues(export.FormSchema(state, name), values); err != nil {
			return fmt.Errorf("values do not satisfy the form: %w", err)
		}
	}
	return writeJSON(env.stdout, export.Document(state, name, version))
}

func schemaName(arg string) string {
	base := arg
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.Index(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		return "form"
	}
	return base
}

func runFill(ctx context.Context, env *environment, args []string) error {
	var (
		c    common
		form cliutil.FormFlags
	)
	fs := newFlagSet("fill", env, &c)
	form.AddFlags(fs)

	arg, err := parse(fs, env, &c, args)
	if err != nil {
		return err
	}
	s, err := loadSchema(ctx, env, c, arg)
	if err != nil {
		return err
	}
	values, err := form.FieldValues()
	if err != nil {
		return err
	}
	e, err := newEngine(env, s, engine.DefaultMaxRounds)
	if err != nil {
		return err
	}

	session, err := prompt.NewSession(e,
		prompt.WithDriver(prompt.NewSurveyDriver(env.stderr)),
		prompt.WithLogger(env.logger),
	)
	if err != nil {
		return err
	}
	state, err := session.Fill(ctx, form.Active, values)
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Fprintln(env.stderr, "aborted")
		return nil
	}
	if err != nil {
		return err
	}
	return writeJSON(env.stdout, codec.FormStateToMap(state))
}

func runConvert(ctx context.Context, env *environment, args []string) error {
	var (
		c      common
		to     string
		output string
	)
	fs := newFlagSet("convert", env, &c)
	fs.StringVar(&to, "to", "yaml", "target format: json, jsonc, yaml or cbor")
	fs.StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	arg, err := parse(fs, env, &c, args)
	if err != nil {
		return err
	}
	format, err := codec.Lookup(to)
	if err != nil {
		return err
	}
	s, err := loadSchema(ctx, env, c, arg)
	if err != nil {
		return err
	}
	data, err := codec.EncodeSchema(format, s)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = env.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(env.stderr, "schema written to %s\n", output)
	return nil
}
