// Package health reports datastore liveness over the standard gRPC health service.
package health

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the per-service key reported alongside the overall "" status.
const ServiceName = "restaurant.pos"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Checker struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	logger   logger.ZapLogger
}

func NewChecker(db Pinger, interval time.Duration, log logger.ZapLogger) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Checker{
		server:   health.NewServer(),
		db:       db,
		interval: interval,
		logger:   log.Named("health"),
	}
}

func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.server)
}

// Check pings the datastore once and publishes the result.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.db.PingContext(ctx); err != nil {
		c.logger.Warn("Datastore ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return status
}

// Start checks on an interval until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	c.Check(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the listener closes.
func (c *Checker) Shutdown() {
	c.server.Shutdown()
}
