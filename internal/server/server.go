// Package server owns the OTLP listener lifecycle: the
// stopped/starting/running/stopping state machine, per-signal service
// registration and the cumulative ingest counters.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	collectorlogsv1 "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	collectormetricsv1 "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	collectortracev1 "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"otelkeep/internal/ingest"
)

// State names the lifecycle phases of the listener.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyRunning = errors.New("server already running")
	ErrNotRunning     = errors.New("server not running")
)

const stopTimeout = 5 * time.Second

// Settings is the listener configuration supplied by the settings
// collaborator: bind address and the per-signal enable flags.
type Settings struct {
	Host           string
	Port           int
	TracesEnabled  bool
	MetricsEnabled bool
	LogsEnabled    bool
}

// Addr returns the bind address in host:port form.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Stats is a read-only snapshot of the manager's observable state.
type Stats struct {
	Running      bool
	State        string
	Addr         string
	StartTime    time.Time
	Uptime       time.Duration
	Spans        int64
	MetricPoints int64
	LogRecords   int64
}

// Manager owns the network listener and the gRPC server serving the
// export RPCs. All mutable state lives behind one mutex so that
// concurrent callers (RPC handlers, the UI, signal handlers) never
// need locking of their own.
type Manager struct {
	store    ingest.Store
	counters *Counters
	log      zerolog.Logger

	mu        sync.Mutex
	settings  Settings
	state     State
	grpcSrv   *grpc.Server
	listener  net.Listener
	startTime time.Time
}

// NewManager creates a stopped manager. The store is shared with the
// export services registered on Start.
func NewManager(settings Settings, store ingest.Store, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		counters: NewCounters(),
		log:      log.With().Str("component", "server").Logger(),
		settings: settings,
		state:    StateStopped,
	}
}

// Counters exposes the cumulative received counters for the export
// services to increment.
func (m *Manager) Counters() *Counters {
	return m.counters
}

// Start binds the listener and begins serving the enabled export
// services. Starting an already running server is an error; a bind
// failure leaves the manager stopped.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateStopped {
		return ErrAlreadyRunning
	}
	m.state = StateStarting

	listener, err := net.Listen("tcp", m.settings.Addr())
	if err != nil {
		m.state = StateStopped
		return fmt.Errorf("failed to bind %s: %w", m.settings.Addr(), err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(m.log),
			recoveryInterceptor(m.log),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 10 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
	)

	registered := 0
	if m.settings.TracesEnabled {
		collectortracev1.RegisterTraceServiceServer(srv,
			ingest.NewTraceService(m.store, m.counters, m.log))
		registered++
	}
	if m.settings.MetricsEnabled {
		collectormetricsv1.RegisterMetricsServiceServer(srv,
			ingest.NewMetricsService(m.store, m.counters, m.log))
		registered++
	}
	if m.settings.LogsEnabled {
		collectorlogsv1.RegisterLogsServiceServer(srv,
			ingest.NewLogsService(m.store, m.counters, m.log))
		registered++
	}
	if registered == 0 {
		m.log.Warn().Msg("all signals disabled, listener accepts no export rpcs")
	}

	healthpb.RegisterHealthServer(srv, health.NewServer())

	go func() {
		if err := srv.Serve(listener); err != nil {
			m.log.Error().Err(err).Msg("grpc serve ended")
		}
	}()

	m.grpcSrv = srv
	m.listener = listener
	m.startTime = time.Now()
	m.state = StateRunning

	m.log.Info().
		Str("addr", listener.Addr().String()).
		Bool("traces", m.settings.TracesEnabled).
		Bool("metrics", m.settings.MetricsEnabled).
		Bool("logs", m.settings.LogsEnabled).
		Msg("otlp listener started")

	return nil
}

// Stop gracefully drains in-flight RPCs, forcing a hard stop after a
// timeout. Stopping a server that is not running is an error.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return ErrNotRunning
	}
	m.state = StateStopping

	stopped := make(chan struct{})
	go func() {
		m.grpcSrv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		m.log.Info().Msg("otlp listener stopped gracefully")
	case <-time.After(stopTimeout):
		m.log.Warn().Msg("graceful stop timed out, forcing stop")
		m.grpcSrv.Stop()
	}

	m.grpcSrv = nil
	m.listener = nil
	m.state = StateStopped
	return nil
}

// Restart is stop followed by start.
func (m *Manager) Restart() error {
	if err := m.Stop(); err != nil {
		return err
	}
	return m.Start()
}

// UpdateSettings replaces the listener settings; they take effect on
// the next Start.
func (m *Manager) UpdateSettings(settings Settings) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a snapshot of the manager's observable state.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	spans, points, records := m.counters.Snapshot()
	st := Stats{
		Running:      m.state == StateRunning,
		State:        m.state.String(),
		Addr:         m.settings.Addr(),
		Spans:        spans,
		MetricPoints: points,
		LogRecords:   records,
	}
	if m.state == StateRunning {
		st.StartTime = m.startTime
		st.Uptime = time.Since(m.startTime)
		if m.listener != nil {
			st.Addr = m.listener.Addr().String()
		}
	}
	return st
}

// WaitForShutdown blocks until ctx is cancelled, then stops the
// server if it is still running.
func (m *Manager) WaitForShutdown(ctx context.Context) {
	<-ctx.Done()
	if err := m.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		m.log.Error().Err(err).Msg("shutdown stop failed")
	}
}
