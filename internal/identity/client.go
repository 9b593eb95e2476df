// Package identity talks to the external auth service. This backend never
// authenticates anyone itself: requests arrive with a gateway-verified
// X-User-ID / X-User-Admin pair, and the only RPC this client makes is a
// liveness probe so /readyz can report when the auth dependency is down.
package identity

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial connects without blocking; RPCs use WaitForReady so a late-starting
// auth service does not fail the boot sequence.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

func (c *Client) Ready(ctx context.Context) error {
	res, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(false))
	if err != nil {
		return err
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("auth service not serving: %s", res.GetStatus())
	}
	return nil
}

func (c *Client) Close() error { return c.conn.Close() }
