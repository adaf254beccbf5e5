package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/matterwavelabs/splitstep/core"
	"github.com/matterwavelabs/splitstep/internal/logging"
	"github.com/matterwavelabs/splitstep/internal/observability"
	"github.com/matterwavelabs/splitstep/params"
)

func main() {
	paramsPath := flag.String("params", "params.yaml", "Path to the simulation parameter file")
	outDir := flag.String("out-dir", "", "Snapshot output directory (overrides the parameter file)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables the endpoint")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	var collector *observability.PropagatorCollector
	var metricsSrv *http.Server
	if *metricsAddr != "" {
		collector, err = observability.NewPropagatorCollector(nil)
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
		metricsSrv = serveMetrics(*metricsAddr, collector, log)
	}

	cfg, err := params.Load(*paramsPath)
	if err != nil {
		log.Error(ctx, "failed to load parameter file",
			logging.String("path", *paramsPath),
			logging.String("error", err.Error()),
		)
		os.Exit(1)
	}

	dir := cfg.OutputDir()
	if *outDir != "" {
		dir = *outDir
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error(ctx, "failed to create output directory", logging.String("dir", dir), logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	p, err := core.New(core.Config{
		Files:   cfg.InputFiles(),
		Alpha:   cfg.Alpha(),
		GS:      cfg.GS(),
		Dt:      cfg.Dt(),
		OutDir:  dir,
		Logger:  log,
		Metrics: collector,
	})
	if err != nil {
		log.Error(ctx, "failed to construct propagator", logging.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info(ctx, "propagator ready",
		logging.Int("components", p.Components()),
		logging.Int("grid_points", p.Desc().N),
		logging.Float64("dt", p.Dt()),
		logging.Int("instructions", len(cfg.Sequence())),
	)

	start := time.Now()
	if err := p.RunSequence(ctx, cfg.Sequence()); err != nil {
		log.Error(ctx, "sequence run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "sequence run complete",
		logging.Float64("simulation_time", p.Time()),
		logging.String("wall_time", time.Since(start).String()),
	)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.PropagatorCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
