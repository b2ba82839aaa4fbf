// mixinform-lint reports structural problems in mixin schema files:
// undefined references, unreachable mixins and questionable fields.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-mixinform/internal/cliutil"
	"github.com/goliatone/go-mixinform/pkg/lint"
	"github.com/goliatone/go-mixinform/pkg/store"
)

type fileReport struct {
	File   string      `json:"file"`
	Result lint.Result `json:"result"`
}

func main() {
	code, err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

// run returns the process exit code: 0 when clean, 1 when any file has
// errors (or warnings with --strict), 2 on usage or load failures.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	var (
		logFlags cliutil.LogFlags
		asJSON   bool
		strict   bool
	)
	flags := pflag.NewFlagSet("mixinform-lint", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [files or directories...]\n\nLint mixin schema files (json, jsonc, yaml).\n\nFlags:\n", filepath.Base(os.Args[0]))
		flags.PrintDefaults()
	}
	logFlags.AddFlags(flags)
	flags.BoolVar(&asJSON, "json", false, "print the report as JSON")
	flags.BoolVar(&strict, "strict", false, "treat warnings as failures")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, err
		}
		return 2, err
	}
	logger, err := logFlags.Logger(stderr)
	if err != nil {
		return 2, err
	}

	paths := flags.Args()
	if len(paths) == 0 {
		paths = []string{"testdata/schemas"}
	}
	files, err := expand(paths)
	if err != nil {
		return 2, err
	}

	loader := store.NewLoader()
	reports := make([]fileReport, 0, len(files))
	for _, file := range files {
		s, err := loader.Load(ctx, store.SourceFromFile(file))
		if err != nil {
			return 2, fmt.Errorf("lint %s: %w", file, err)
		}
		result := lint.Run(s)
		logger.Debug("schema linted", "file", file, "issues", len(result.Issues))
		reports = append(reports, fileReport{File: file, Result: result})
	}

	failed := false
	for _, report := range reports {
		if !report.Result.Valid || (strict && report.Result.Count(lint.SeverityWarning) > 0) {
			failed = true
		}
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return 2, err
		}
	} else {
		for _, report := range reports {
			for _, issue := range report.Result.Issues {
				fmt.Fprintf(stdout, "%s: %s [%s] %s%s\n", report.File, issue.Severity, issue.Rule, location(issue), issue.Message)
			}
		}
	}

	if failed {
		return 1, nil
	}
	return 0, nil
}

func location(issue lint.Issue) string {
	switch {
	case issue.Mixin != "" && issue.Field != "":
		return issue.Mixin + " > " + issue.Field + ": "
	case issue.Mixin != "":
		return issue.Mixin + ": "
	case issue.Field != "":
		return issue.Field + ": "
	default:
		return ""
	}
}

// expand replaces directories with the schema files they contain.
func expand(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch filepath.Ext(file) {
			case ".json", ".jsonc", ".yaml", ".yml":
				files = append(files, file)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
