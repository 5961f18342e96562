package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edinai/lecture-audio/internal/bus"
	"github.com/edinai/lecture-audio/internal/config"
	"github.com/edinai/lecture-audio/internal/jobstore"
	"github.com/edinai/lecture-audio/internal/lecture"
	"github.com/edinai/lecture-audio/internal/natsserver"
	"github.com/edinai/lecture-audio/internal/tts"
)

// Runtime wires config, telemetry, bus, job store and the lecture service
// into one process.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	ns, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded bus: %w", err)
	}
	defer ns.Shutdown()

	busCfg := r.cfg.Bus
	if ns != nil {
		busCfg.Servers = []string{ns.ClientURL()}
	}
	busClient, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer busClient.Close()

	store, err := jobstore.Open(ctx, r.cfg.JobStore, r.logger)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	synth, err := newSynthesizer(r.cfg.Synthesis, r.logger)
	if err != nil {
		return err
	}

	pipeline := lecture.NewPipeline(r.cfg.Synthesis, r.cfg.Storage.Root, synth, r.logger)
	svc := lecture.NewService(ctx, pipeline, busClient, store, r.logger)
	if err := svc.Start(); err != nil {
		return fmt.Errorf("start lecture service: %w", err)
	}
	defer svc.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.readyHandler(busClient, svc))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("synthesis_mode", r.cfg.Synthesis.Mode),
		slog.String("storage_root", r.cfg.Storage.Root))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func newSynthesizer(cfg config.SynthesisConfig, log *slog.Logger) (tts.Synthesizer, error) {
	switch cfg.Mode {
	case "mock":
		return tts.NewMockSynthesizer(), nil
	case "edge":
		return tts.NewEdgeSynthesizer(log), nil
	default:
		return nil, fmt.Errorf("unknown synthesis mode %q", cfg.Mode)
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) readyHandler(busClient *bus.Client, svc *lecture.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if r.ready.Load() && busClient.Healthy() && svc.Healthy() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	}
}
