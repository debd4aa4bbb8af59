package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/backend"
	"spendtrack/internal/cli"
	"spendtrack/internal/config"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/loader"
	"spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/sheets/local"
	"spendtrack/internal/sheets/memory"
	"spendtrack/internal/worker"
)

const refreshTimeout = 2 * time.Minute

func main() {
	writeSamples := flag.Bool("write-samples", false, "write demo workbooks to DATA_DIR and exit")
	hashSecret := flag.Bool("hash-password", false, "read a password from stdin, print its bcrypt hash for "+auth.EnvPassword+" and exit")
	flag.Parse()

	if *hashSecret {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	layout, err := cfg.LoadLayout()
	if err != nil {
		logger.Error("Failed to load workbook layout", log.FieldError, err)
		os.Exit(1)
	}

	if *writeSamples {
		if err := writeSampleWorkbooks(cfg.DataDir, layout, time.Now()); err != nil {
			logger.Error("Failed to write sample workbooks", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Sample workbooks written", "data_directory", cfg.DataDir)
		return
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to create backend config", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	l := loader.New(result.Reader, layout, logger.WithComponent(log.ComponentLoader))
	dash := services.NewDashboard(l, services.Options{
		TTL:       cfg.DataCacheTTL,
		Highlight: cfg.HighlightCategory,
	}, logger.WithComponent(log.ComponentDashboard))

	creds := auth.LoadCredentials(nil)
	gate := auth.NewGate(creds, cfg.LoginMaxAttempts, cfg.LoginLockout)
	authLogger := logger.WithComponent(log.ComponentAuth)
	if !gate.Configured() {
		authLogger.Warn("No login credentials configured; set " + auth.EnvUsername + " and " + auth.EnvPassword)
	} else {
		authLogger.Info("Login enabled", "users", len(creds), log.FieldAttempts, cfg.LoginMaxAttempts)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              cfg.Addr(),
		CurrencySymbol:    cfg.CurrencySymbol,
		CookieSecure:      cfg.CookieSecure,
		SessionTTL:        cfg.SessionTTL,
		RequestsPerMinute: cfg.RequestsPerMinute,
		DataTimeout:       cfg.DriveTimeout * 3,
		Caches:            dash.Caches(),
	}, dash, gate, logger.WithComponent(log.ComponentHTTP))

	var refresher *worker.RefreshWorker
	if cfg.DataRefreshSchedule != "" {
		refresher = worker.NewRefreshWorker(dash, cfg.DataRefreshSchedule, refreshTimeout, logger.WithComponent(log.ComponentWorker))
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if refresher != nil {
			refresher.Stop(ctx)
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	if refresher != nil {
		if err := refresher.Start(ctx); err != nil {
			logger.Error("Failed to start refresh worker", log.FieldError, err)
			os.Exit(1)
		}
	}

	// Warm the memo so the first page view does not wait on Drive.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		_ = dash.Warm(warmCtx)
	}()

	logger.Info("Starting spendtrack server",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		log.FieldSource, dash.Source(),
		log.FieldSchedule, cfg.DataRefreshSchedule)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// hashPassword reads the first line of in and writes its bcrypt hash.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := auth.HashSecret(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// writeSampleWorkbooks stores the demo datasets as xlsx files at the
// layout's local paths, so the local backend has something to read.
func writeSampleWorkbooks(dir string, layout config.Layout, now time.Time) error {
	w := local.New(dir)
	tables := memory.SampleTables(now)
	for name, ref := range layout.Refs() {
		t, ok := tables[name]
		if !ok {
			continue
		}
		if err := w.Write(ref, t); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
