package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type flakyDB struct {
	down atomic.Bool
}

func (d *flakyDB) PingContext(context.Context) error {
	if d.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestCheck_PublishesDatastoreStatus(t *testing.T) {
	db := &flakyDB{}
	c := NewChecker(db, 0, logger.NewNop())
	ctx := context.Background()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, c.Check(ctx))
	resp, err := c.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	db.down.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, c.Check(ctx))
	resp, err = c.server.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
