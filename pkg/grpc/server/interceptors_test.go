package server

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type recordedCall struct {
	method string
	code   string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) ObserveGRPC(method, code string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method, code})
}

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/astromatch.v1.Synastry/BuildChart"}

func okHandler(ctx context.Context, req any) (any, error) {
	return "chart", nil
}

func failingHandler(code codes.Code) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(code, "nope")
	}
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interceptor := LoggingInterceptor(zap.New(core))

	t.Run("successful request", func(t *testing.T) {
		resp, err := interceptor(context.Background(), "req", testInfo, okHandler)

		require.NoError(t, err)
		assert.Equal(t, "chart", resp)
		entry := logs.TakeAll()[0]
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		assert.Equal(t, "OK", entry.ContextMap()["status_code"])
		assert.Equal(t, "unknown", entry.ContextMap()["peer"])
	})

	t.Run("client error logs at warn", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", testInfo, failingHandler(codes.InvalidArgument))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Equal(t, zapcore.WarnLevel, logs.TakeAll()[0].Level)
	})

	t.Run("server error logs at error", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", testInfo, failingHandler(codes.Unavailable))

		assert.Equal(t, codes.Unavailable, status.Code(err))
		entry := logs.TakeAll()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "nope", entry.ContextMap()["status_message"])
	})
}

func TestMetricsInterceptor(t *testing.T) {
	rec := &fakeRecorder{}
	interceptor := MetricsInterceptor(rec)

	_, _ = interceptor(context.Background(), "req", testInfo, okHandler)
	_, _ = interceptor(context.Background(), "req", testInfo, failingHandler(codes.Unavailable))

	assert.Equal(t, []recordedCall{
		{testInfo.FullMethod, "OK"},
		{testInfo.FullMethod, "Unavailable"},
	}, rec.calls)
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zaptest.NewLogger(t))

	resp, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
		panic("ephemeris table corrupt")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestNew_InvalidPort(t *testing.T) {
	_, err := New(WithPort(70000))

	assert.ErrorContains(t, err, "invalid port")
}

func TestServerBuilderWithHealth(t *testing.T) {
	rec := &fakeRecorder{}
	server, err := New(
		WithPort(0),
		WithLogger(zaptest.NewLogger(t)),
		WithLogging(true),
		WithMetrics(rec),
	)
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	server.RegisterServiceWithHealth("astromatch.v1.Synastry", func(s *grpc.Server) {})
	server.Start()

	conn, err := grpc.NewClient(server.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	healthClient := healthpb.NewHealthClient(conn)

	resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "astromatch.v1.Synastry"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	server.SetServiceHealth("astromatch.v1.Synastry", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "astromatch.v1.Synastry"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.calls, 2)
}

func TestNew_WithListener(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server, err := New(WithListener(lis), WithIdleTimeout(time.Minute))
	require.NoError(t, err)
	defer server.Shutdown(context.Background())

	assert.Equal(t, lis.Addr().String(), server.Addr().String())
}

func TestChainOrder(t *testing.T) {
	extra := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(ctx, req)
	}

	assert.Len(t, chain(&Options{}, zap.NewNop()), 1)
	assert.Len(t, chain(&Options{logging: true, metrics: &fakeRecorder{}}, zap.NewNop()), 3)
	assert.Len(t, chain(&Options{interceptors: []grpc.UnaryServerInterceptor{extra}}, zap.NewNop()), 2)
}
