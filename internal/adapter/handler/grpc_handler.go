package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the service reported by the gRPC health endpoint in
// addition to the server-wide "" entry.
const HealthServiceName = "storefront"

const pingTimeout = 2 * time.Second

// Pinger is implemented by the storage adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCHandler serves grpc.health.v1.Health. The storefront is SERVING while
// every dependency answers a ping.
type GRPCHandler struct {
	health *health.Server
	deps   map[string]Pinger
	logger *zap.Logger
}

func NewGRPCHandler(deps map[string]Pinger, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &GRPCHandler{
		health: health.NewServer(),
		deps:   deps,
		logger: logger,
	}
	h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.health)
}

// Probe pings every dependency once and updates the reported status.
func (h *GRPCHandler) Probe(ctx context.Context) bool {
	healthy := true
	for name, dep := range h.deps {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := dep.Ping(pingCtx)
		cancel()

		if err != nil {
			h.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			healthy = false
		}
	}

	if healthy {
		h.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		h.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

// Run probes immediately and then every interval until ctx is done.
func (h *GRPCHandler) Run(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING for every service and ignores later probes.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}

func (h *GRPCHandler) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthServiceName, status)
}
