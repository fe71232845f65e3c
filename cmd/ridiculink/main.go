// Command ridiculink serves the long URL API.
//
// Usage:
//
//	ridiculink [serve]   run the HTTP server (default)
//	ridiculink purge     delete expired mappings from the SQL backend
//	ridiculink version   print build information
//
// Configuration is read from the environment (and an optional .env file),
// see internal/config.
//
//	@title			Ridiculink API
//	@version		1.0
//	@description	Turns short URLs into absurdly long ones that expire after seven days.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-ridiculink/docs"
	"github.com/tbourn/go-ridiculink/internal/config"
	httpapi "github.com/tbourn/go-ridiculink/internal/http"
	"github.com/tbourn/go-ridiculink/internal/observability"
	"github.com/tbourn/go-ridiculink/internal/repo"
	"github.com/tbourn/go-ridiculink/internal/services"
	"github.com/tbourn/go-ridiculink/internal/surrogate"
	"github.com/tbourn/go-ridiculink/internal/sysutil"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], cfg, os.Stdout)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("ridiculink exited with error")
	}
}

// run dispatches the subcommand named by args[0], "serve" when absent.
func run(ctx context.Context, args []string, cfg config.Config, stdout io.Writer) error {
	var cmd string
	if len(args) > 0 {
		cmd = args[0]
	}
	switch sysutil.FirstNonEmpty(cmd, "serve") {
	case "serve":
		return serve(ctx, cfg)
	case "purge":
		return purge(ctx, cfg)
	case "version":
		_, err := fmt.Fprintf(stdout, "ridiculink %s (%s)\n", version, commit)
		return err
	default:
		return fmt.Errorf("unknown command %q (want serve, purge or version)", cmd)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.BuildInfo{
		Version:        version,
		Commit:         commit,
		StorageBackend: cfg.StorageBackend,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	vocab, err := surrogate.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return err
	}
	svc := services.NewMappingService(b.store, surrogate.New(surrogate.WithVocabulary(vocab)))

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.StorageBackend).
			Str("version", version).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// purge deletes expired mappings once and reports table sizes around it.
// Key-value backends expire records on their own and report zero.
func purge(ctx context.Context, cfg config.Config) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	svc := services.NewMappingService(b.store, nil)
	logStats(ctx, b, "before purge")

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	log.Info().Int64("purged", n).Str("backend", cfg.StorageBackend).Msg("expired mappings purged")

	logStats(ctx, b, "after purge")
	return nil
}

func logStats(ctx context.Context, b *backend, msg string) {
	if b.db == nil {
		return
	}
	total, valid, err := repo.MappingsStats(ctx, b.db, time.Now().UTC())
	if err != nil {
		log.Warn().Err(err).Msg("mapping stats")
		return
	}
	log.Info().Int64("total", total).Int64("valid", valid).Msg(msg)
}
