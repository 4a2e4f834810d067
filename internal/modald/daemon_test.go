package modald

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/opencode-ai/webmodal/internal/config"
)

func TestNewUsesConfigAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Daemon.Port = 6123
	daemon, err := New(cfg, zerolog.Nop(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got, want := daemon.Address(), fmt.Sprintf("%s:6123", cfg.Daemon.Host); got != want {
		t.Fatalf("Address() = %q, want %q", got, want)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil, zerolog.Nop(), Options{}); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestRunReturnsOnCanceledContext(t *testing.T) {
	daemon, err := New(config.DefaultConfig(), zerolog.Nop(), Options{Port: 50199})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- daemon.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

// startBufconn serves the daemon over an in-memory listener.
func startBufconn(t *testing.T, cfg *config.Config) *Client {
	t.Helper()
	daemon, err := New(cfg, zerolog.Nop(), Options{Version: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	listener := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- daemon.serve(ctx, listener)
	}()

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		cancel()
		<-done
	})
	return client
}

func TestClientRoundTrip(t *testing.T) {
	client := startBufconn(t, config.DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ping, err := client.Ping(ctx)
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if ping.Version != "test" {
		t.Errorf("Version = %q, want test", ping.Version)
	}

	opened, err := client.OpenDialog(ctx, OpenDialogRequest{Surface: "tab-1", Title: "Confirm"})
	if err != nil {
		t.Fatalf("OpenDialog() error = %v", err)
	}
	if !opened.Surface.Blocked {
		t.Error("surface should be blocked")
	}

	surfaces, err := client.ListSurfaces(ctx)
	if err != nil {
		t.Fatalf("ListSurfaces() error = %v", err)
	}
	if len(surfaces) != 1 || surfaces[0].Dialogs[0].Handle != opened.Handle {
		t.Fatalf("surfaces = %+v, want one with handle %s", surfaces, opened.Handle)
	}

	surf, err := client.CloseDialog(ctx, opened.Handle, false)
	if err != nil {
		t.Fatalf("CloseDialog() error = %v", err)
	}
	if surf.Blocked {
		t.Error("surface should be unblocked after close")
	}
}

func TestClientRateLimited(t *testing.T) {
	cfg := config.DefaultConfig()
	client := startBufconn(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	limit := DefaultRateLimits[FullMethod(MethodCloseAll)].BurstSize
	var limited bool
	for i := 0; i <= limit+5 && !limited; i++ {
		_, err := client.CloseAll(ctx, "missing")
		limited = err != nil && isResourceExhausted(err)
	}
	if !limited {
		t.Error("expected CloseAll to be rate limited")
	}
}

func isResourceExhausted(err error) bool {
	return status.Code(err) == codes.ResourceExhausted
}
