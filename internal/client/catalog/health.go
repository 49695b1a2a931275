package catalog

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health probes the backend's gRPC health service.
type Health struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func NewHealth(addr string) (*Health, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Health{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Online reports whether the backend answers SERVING.
func (h *Health) Online(ctx context.Context) bool {
	resp, err := h.client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (h *Health) Close() error {
	return h.conn.Close()
}
