// ledgerctl operates a briq ledger directly against its configured backends:
// seeding fixtures, inspecting profiles, reconciling agreements and rendering
// signature messages.
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
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"briq/internal/app"
	"briq/internal/platform/config"
	"briq/internal/platform/logger"
	"briq/internal/platform/middleware"
	rentalhandler "briq/internal/rental/handler"
	trusthandler "briq/internal/trust/handler"
	"briq/internal/trust/seed"
)

const usage = `Usage: ledgerctl <command> [flags]

Commands:
  seed -f FILE        apply YAML fixtures (profiles, agreements)
  show ADDRESS        print a profile, its summary and metadata
  reconcile           run one reconcile pass over pending agreements
  message -f FILE     render the signature message for agreement terms
  token ADDRESS       issue a bearer token signed with BRIQ_JWT_SIGNING_KEY

Backends are selected with the same BRIQ_* variables as the server.
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWriter(os.Stderr, cfg.Log)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "seed":
		return runSeed(ctx, cfg, log, rest, out)
	case "show":
		return runShow(ctx, cfg, log, rest, out)
	case "reconcile":
		return runReconcile(ctx, cfg, log, rest, out)
	case "message":
		return runMessage(ctx, cfg, log, rest, out)
	case "token":
		return runToken(cfg, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func fileFlag(name string, args []string) (string, []string, error) {
	var path string
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&path, "file", "f", "", "path to a YAML file")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if path == "" {
		return "", nil, fmt.Errorf("%s: --file is required", name)
	}
	return path, fs.Args(), nil
}

func runSeed(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	path, _, err := fileFlag("seed", args)
	if err != nil {
		return err
	}
	fixtures, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := seed.New(a.Trust.Recorder, a.Rental.Coordinator, log).Apply(ctx, fixtures)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func runShow(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("show: exactly one address is required")
	}
	a, err := app.Open(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Trust.Recorder.Profile(ctx, args[0])
	if err != nil {
		return err
	}
	summary, err := a.Trust.Recorder.Summary(ctx, args[0])
	if err != nil {
		return err
	}
	meta, err := a.Trust.Refresher.Metadata(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"profile":  trusthandler.FromProfile(p),
		"summary":  trusthandler.FromSummary(summary),
		"metadata": meta,
	})
}

func runReconcile(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	var maxAttempts int
	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	fs.IntVar(&maxAttempts, "max-attempts", cfg.Rental.MaxAttempts, "cancel agreements after this many failed attempts (0 never cancels)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Rental.MaxAttempts = maxAttempts

	a, err := app.Open(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Rental.Reconciler.Run(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, report)
}

func runMessage(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	path, _, err := fileFlag("message", args)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read terms: %w", err)
	}
	var terms seed.Agreement
	if err := yaml.Unmarshal(raw, &terms); err != nil {
		return fmt.Errorf("decode terms: %w", err)
	}

	// Drafting never touches storage, so an in-memory setup is enough.
	cfg.Store = config.Store{}
	cfg.Ledger.EventSink = config.BackendMemory
	cfg.Redis = config.RedisConfig{}
	a, err := app.Open(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Rental.Coordinator.Draft(terms.Terms())
	if err != nil {
		return err
	}
	return writeJSON(out, rentalhandler.DraftResponse{
		Terms:         rentalhandler.FromTerms(d.Terms),
		AgreementHash: d.Hash,
		Message:       d.Message,
	})
}

func runToken(cfg config.Config, args []string, out io.Writer) error {
	var ttl time.Duration
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("token: exactly one address is required")
	}
	if cfg.Server.JWTSigningKey == "" {
		return errors.New("token: BRIQ_JWT_SIGNING_KEY is not set")
	}
	token, err := middleware.NewHS256Validator(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer).
		Issue(fs.Arg(0), time.Now(), ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
