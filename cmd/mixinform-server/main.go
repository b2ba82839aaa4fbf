// mixinform-server serves the schema API over HTTP, backed by a directory
// of schema files or an in-memory store.
package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/goliatone/go-mixinform/internal/cliutil"
	"github.com/goliatone/go-mixinform/pkg/api"
	"github.com/goliatone/go-mixinform/pkg/samples"
	"github.com/goliatone/go-mixinform/pkg/store"
)

type config struct {
	log       cliutil.LogFlags
	addr      string
	dir       string
	seed      bool
	basePath  string
	token     string
	maxRounds int
	maxBody   int64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := pflag.NewFlagSet("mixinform-server", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.log.AddFlags(fs)
	fs.StringVar(&cfg.addr, "addr", ":8080", "listen address")
	fs.StringVar(&cfg.dir, "dir", "", "schema directory (in-memory store when empty)")
	fs.BoolVar(&cfg.seed, "seed", true, "write the sample schemas that are not present yet on start")
	fs.StringVar(&cfg.basePath, "base-path", "/api/schema", "mount path for the schema routes")
	fs.StringVar(&cfg.token, "token", os.Getenv("MIXINFORM_TOKEN"), "bearer token required on every request (env MIXINFORM_TOKEN)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 0, "cap on fixed-point rounds per evaluation (0 keeps the default)")
	fs.Int64Var(&cfg.maxBody, "max-body", 1<<20, "maximum request body size in bytes")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return cfg, nil
}

func openStore(cfg config) (store.Store, error) {
	if cfg.dir == "" {
		return store.NewMemory(), nil
	}
	return store.NewDir(cfg.dir)
}

func newHandler(ctx context.Context, cfg config, logger *slog.Logger) (*api.Handler, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.seed {
		written, err := store.Import(ctx, st, samples.All(), false)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		logger.Info("samples seeded", "written", written)
	}

	options := []api.OptionFn{
		api.WithLogger(logger),
		api.WithBasePath(cfg.basePath),
		api.WithMaxBodyBytes(cfg.maxBody),
	}
	if cfg.maxRounds > 0 {
		options = append(options, api.WithMaxRounds(cfg.maxRounds))
	}
	if cfg.token != "" {
		options = append(options, api.WithGuard(bearerGuard(cfg.token)))
	}
	return api.New(st, options...)
}

// bearerGuard accepts requests carrying "Authorization: Bearer <token>".
// Health checks pass without a token.
func bearerGuard(token string) api.GuardFunc {
	expected := []byte(token)
	return func(r *http.Request) error {
		if r.URL.Path == "/healthz" {
			return nil
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			return api.StatusError{Code: http.StatusUnauthorized}
		}
		return nil
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		return err
	}
	logger, err := cfg.log.Logger(stderr)
	if err != nil {
		return err
	}

	handler, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	pattern, err := api.RegisterRoutes(mux, handler)
	if err != nil {
		return err
	}
	mux.Handle("GET /healthz", handler)

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Warn("listening", "addr", cfg.addr, "routes", pattern)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
