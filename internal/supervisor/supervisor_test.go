package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/jengzang/trackheat/internal/location"
)

type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	started       chan struct{}
	stopCh        chan struct{}
	shutdownCalls atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCalls.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

var (
	_ suture.Service = (*HTTPService)(nil)
	_ suture.Service = (*TrackingService)(nil)
)

func TestNewHTTPService_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, NewHTTPService(newMockHTTPServer(), 0).shutdownTimeout)
	assert.Equal(t, 10*time.Second, NewHTTPService(newMockHTTPServer(), -time.Second).shutdownTimeout)
	assert.Equal(t, time.Second, NewHTTPService(newMockHTTPServer(), time.Second).shutdownTimeout)
}

func TestHTTPService_GracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPService(server, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	<-server.started
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.EqualValues(t, 1, server.shutdownCalls.Load())
}

func TestHTTPService_ListenError(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	server := newMockHTTPServer()
	server.listenErr = bindErr

	err := NewHTTPService(server, time.Second).Serve(context.Background())
	assert.ErrorIs(t, err, bindErr)
}

func TestHTTPService_ShutdownError(t *testing.T) {
	shutdownErr := errors.New("shutdown timeout")
	server := newMockHTTPServer()
	server.shutdownErr = shutdownErr
	svc := NewHTTPService(server, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	<-server.started
	cancel()

	assert.ErrorIs(t, <-errCh, shutdownErr)
}

type mockSession struct {
	mu      sync.Mutex
	startFn func(ctx context.Context) error
	starts  int
	stops   int
}

func (m *mockSession) Start(ctx context.Context) error {
	m.mu.Lock()
	m.starts++
	fn := m.startFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (m *mockSession) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
}

func (m *mockSession) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

func TestTrackingService_AutostartAndStopOnShutdown(t *testing.T) {
	s := &mockSession{}
	svc := NewTrackingService(s, true)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool { starts, _ := s.counts(); return starts == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	starts, stops := s.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
}

func TestTrackingService_NoAutostartStillStops(t *testing.T) {
	s := &mockSession{}
	svc := NewTrackingService(s, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, svc.Serve(ctx), context.Canceled)
	starts, stops := s.counts()
	assert.Zero(t, starts)
	assert.Equal(t, 1, stops)
}

func TestTrackingService_PermissionDeniedIsPermanent(t *testing.T) {
	s := &mockSession{startFn: func(context.Context) error {
		return fmt.Errorf("location source not available: %w", location.ErrPermissionDenied)
	}}

	err := NewTrackingService(s, true).Serve(context.Background())
	assert.ErrorIs(t, err, suture.ErrDoNotRestart)
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
}

func TestTrackingService_TransientErrorIsRetried(t *testing.T) {
	s := &mockSession{startFn: func(context.Context) error {
		return fmt.Errorf("location source not available: %w", location.ErrUnavailable)
	}}

	err := NewTrackingService(s, true).Serve(context.Background())
	assert.ErrorIs(t, err, location.ErrUnavailable)
	assert.NotErrorIs(t, err, suture.ErrDoNotRestart)
}

func TestTree_RestartsFailedService(t *testing.T) {
	var calls atomic.Int32
	s := &mockSession{startFn: func(context.Context) error {
		if calls.Add(1) < 3 {
			return location.ErrUnavailable
		}
		return nil
	}}

	tree := NewTree(zerolog.Nop(), TreeConfig{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})
	tree.Add(NewTrackingService(s, true))

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
	_, stops := s.counts()
	assert.Equal(t, 1, stops)

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestTreeConfig_Defaults(t *testing.T) {
	c := TreeConfig{}.withDefaults()
	assert.Equal(t, 5.0, c.FailureThreshold)
	assert.Equal(t, 30.0, c.FailureDecay)
	assert.Equal(t, 15*time.Second, c.FailureBackoff)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
}
