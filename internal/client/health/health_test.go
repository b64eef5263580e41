package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T) (string, *health.Server) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String(), hs
}

func TestPing(t *testing.T) {
	addr, hs := startHealthServer(t)
	p, err := Dial(addr)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.SetServingStatus(common.HealthServiceName, healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, p.Ping(ctx))

	hs.SetServingStatus(common.HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	err = p.Ping(ctx)
	require.ErrorIs(t, err, ErrNotServing)

	st, err := p.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)
}

func TestPing_Unreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	lis.Close()

	p, err := Dial(addr)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, p.Ping(ctx))
}
