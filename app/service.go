package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/upnepa/gridlog/api/powerapi"
	"github.com/upnepa/gridlog/config"
	coremetrics "github.com/upnepa/gridlog/core/metrics"
	"github.com/upnepa/gridlog/core/reconcile"
	"github.com/upnepa/gridlog/core/region"
	"github.com/upnepa/gridlog/core/timeline"
	"github.com/upnepa/gridlog/infra/logger"
	"github.com/upnepa/gridlog/infra/metrics"
	"github.com/upnepa/gridlog/infra/sqlite"
	"github.com/upnepa/gridlog/internal/eventbus"
)

// Service wires the store, resolver, reconciler and HTTP API together.
type Service struct {
	API        *powerapi.API
	Reconciler *reconcile.Reconciler
	Store      *sqlite.Store

	cfg  *config.Config
	bus  *eventbus.Bus
	sink coremetrics.Sink
	log  logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ctx := context.Background()
	regions, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	// A fresh database carries no catalog; seed the published profiles.
	if len(regions) == 0 {
		n, err := sqlite.SeedRegions(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("seed regions: %w", err)
		}
		logg.Infof("seeded %d region profiles", n)
	}

	resolver := region.NewCache()
	if err := resolver.Rebuild(ctx, store); err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	stats := timeline.NewService(store)
	recon := reconcile.New(cfg.Reconciler, store, store, store, logger.New("reconciler"), sink)
	api := powerapi.New(cfg.API, store, store, store, stats, recon, resolver, bus, sink, logger.New("api"))

	return &Service{
		API:        api,
		Reconciler: recon,
		Store:      store,
		cfg:        cfg,
		bus:        bus,
		sink:       sink,
		log:        logg,
	}, nil
}

// Run starts the HTTP server and background loops, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.forwardEvents(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.Reconciler.Enabled {
		go func() {
			if err := s.Reconciler.Run(ctx); err != nil {
				s.log.Errorf("reconciler: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.API.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.API.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// forwardEvents drains the event bus into the metrics sink.
func (s *Service) forwardEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			rec := coremetrics.PowerEventRecord{
				UserID:        ev.UserID,
				Type:          ev.Type,
				RegionID:      ev.RegionID,
				AutoGenerated: ev.AutoGenerated,
				Time:          ev.Timestamp,
			}
			if err := s.sink.RecordPowerEvents([]coremetrics.PowerEventRecord{rec}); err != nil {
				s.log.Warnf("record power event: %v", err)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.Store.Close()
}
