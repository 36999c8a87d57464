package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/aepbridge/internal/core/api"
	"github.com/solatis/aepbridge/internal/core/config"
	"github.com/solatis/aepbridge/internal/core/metrics"
	"github.com/solatis/aepbridge/internal/sdk"
)

func TestNewGRPCServer_Validation(t *testing.T) {
	svc, err := api.NewBridgeService(sdk.NewLoopback().Runtime(), config.DefaultBridgeConfig())
	require.NoError(t, err)

	_, err = NewGRPCServer(nil, svc, nil, nil)
	assert.Error(t, err)
	_, err = NewGRPCServer(config.DefaultBridgeConfig(), nil, nil, nil)
	assert.Error(t, err)
}

func TestGRPCServer_ServeAndShutdown(t *testing.T) {
	cfg := config.DefaultBridgeConfig()
	svc, err := api.NewBridgeService(sdk.NewLoopback().Runtime(), cfg)
	require.NoError(t, err)
	srv, err := NewGRPCServer(cfg, svc, nil, nil)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())

	v, err := api.NewBridgeClient(conn).Call(ctx, api.ModuleCore, "extensionVersion")
	require.NoError(t, err)
	version, _ := v.AsString()
	assert.Equal(t, sdk.CoreVersion, version)

	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.RecordCall("AEPCore", "extensionVersion", "OK", time.Millisecond)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ms := NewMetricsServer(lis.Addr().String(), reg, nil)
	done := make(chan error, 1)
	go func() { done <- ms.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `aepbridge_calls_total{method="extensionVersion",module="AEPCore",status="OK"} 1`)

	require.NoError(t, ms.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
