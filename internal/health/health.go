// Package health reports database reachability over the standard gRPC
// health protocol and to the HTTP /healthz handler.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name clients pass in HealthCheckRequest.Service.
const ServiceName = "storefront"

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type Monitor struct {
	ping     PingFunc
	interval time.Duration
	srv      *health.Server

	mu      sync.RWMutex
	lastErr error
}

func NewMonitor(ping PingFunc, interval time.Duration) *Monitor {
	m := &Monitor{ping: ping, interval: interval, srv: health.NewServer()}
	m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

func (m *Monitor) set(status healthpb.HealthCheckResponse_ServingStatus) {
	m.srv.SetServingStatus("", status)
	m.srv.SetServingStatus(ServiceName, status)
}

// Register adds the health service to g.
func (m *Monitor) Register(g *grpc.Server) {
	healthpb.RegisterHealthServer(g, m.srv)
}

// Check pings once and publishes the result.
func (m *Monitor) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := m.ping(ctx)

	m.mu.Lock()
	changed := (err == nil) != (m.lastErr == nil)
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.set(healthpb.HealthCheckResponse_NOT_SERVING)
		if changed {
			slog.Warn("[health] database unreachable", "err", err)
		}
		return err
	}
	m.set(healthpb.HealthCheckResponse_SERVING)
	if changed {
		slog.Info("[health] database reachable again")
	}
	return nil
}

// Run checks every interval until ctx is done, then marks the service as
// shutting down.
func (m *Monitor) Run(ctx context.Context) {
	_ = m.Check(ctx)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.srv.Shutdown()
			return
		case <-t.C:
			_ = m.Check(ctx)
		}
	}
}
