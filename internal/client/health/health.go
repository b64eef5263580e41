// Package health asks the server's grpc.health.v1 endpoint whether it is
// serving. The CLI uses it for `ev status` and its online watcher.
package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrNotServing = errors.New("server is not serving")

type Pinger struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// Dial prepares a client for addr. No connection is made until the first call.
func Dial(addr string) (*Pinger, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("health client: %w", err)
	}
	return &Pinger{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Status returns the serving status the server reports for EternalVault.
func (p *Pinger) Status(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: common.HealthServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Ping returns nil only when the server reports SERVING.
func (p *Pinger) Ping(ctx context.Context) error {
	st, err := p.Status(ctx)
	if err != nil {
		return err
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, st)
	}
	return nil
}

func (p *Pinger) Close() error {
	return p.conn.Close()
}
