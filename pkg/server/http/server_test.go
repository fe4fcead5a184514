package http_test

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/absmach/fedround/pkg/server"
	httpserver "github.com/absmach/fedround/pkg/server/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
}

func TestServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := server.Config{Host: "127.0.0.1", Port: freePort(t)}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	hs := httpserver.NewServer(ctx, cancel, "test", cfg, handler, slog.New(slog.DiscardHandler))
	done := make(chan error, 1)
	go func() {
		done <- hs.Start()
	}()

	url := fmt.Sprintf("http://%s:%s/", cfg.Host, cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
