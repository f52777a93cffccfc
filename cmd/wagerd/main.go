package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/wagerhouse/internal/api"
	"github.com/fastprodman/wagerhouse/internal/events"
	"github.com/fastprodman/wagerhouse/internal/infra/logging"
	"github.com/fastprodman/wagerhouse/internal/infra/metrics"
	"github.com/fastprodman/wagerhouse/internal/infra/pgutils"
	pgeventlog "github.com/fastprodman/wagerhouse/internal/repos/eventlog/postgres"
	"github.com/fastprodman/wagerhouse/internal/services/journal"
	"github.com/fastprodman/wagerhouse/pkg/envconf"
	"github.com/fastprodman/wagerhouse/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running wagerd: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	cfg := new(wagerdConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "wagerd")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	houseMetrics, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	houseMetrics.SetExplosionRate(cfg.Settlement.BaseExplosionBps)

	emitter := events.Fanout{events.LogEmitter{Logger: slog.Default()}, houseMetrics}

	// --- Event journal ---
	var eventJournal *journal.Service

	if cfg.Postgres.DSN != "" {
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add(func(context.Context) error {
			slog.Info("Close database")

			return db.Close()
		})

		eventJournal = journal.New(db, pgeventlog.New(db), journal.WithBuffer(cfg.JournalBuffer))
		emitter = append(emitter, eventJournal)
	} else {
		slog.Warn("PG_DSN not set, event journal disabled")
	}

	// --- House ---
	h, err := newHouse(cfg.House, cfg.Settlement, emitter)
	if err != nil {
		return fmt.Errorf("init house: %w", err)
	}

	deps := api.Deps{
		Engine:   h.engine,
		Treasury: h.treasury,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	if eventJournal != nil {
		deps.Journal = eventJournal
	}

	if cfg.isDev() {
		slog.Warn("development faucet enabled")

		deps.Faucet = h.bank
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, deps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("Shut down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	if eventJournal != nil {
		g.Go(func() error {
			return eventJournal.Run(gctx)
		})
	}

	slog.Info("wagerd started",
		"port", cfg.Port,
		"owner", cfg.House.Owner.Hex(),
		"treasury", cfg.House.Treasury.Hex(),
		"game", cfg.House.Game.Hex(),
		"live", h.engine.IsLive(),
	)

	return g.Wait()
}
