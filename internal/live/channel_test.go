package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// newSocketServer serves one websocket endpoint that sends the given frames
// and then holds the connection open.
func newSocketServer(t *testing.T, frames []string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestChannelDeliversValidUpdatesAndDropsTheRest(t *testing.T) {
	url := newSocketServer(t, []string{
		`{"type":"reservation-update"}`,
		`not json at all`,
		`{"type":"weather-update"}`,
		`{"type":"point-update"}`,
	})

	var mu sync.Mutex
	var kinds []string
	ch := NewChannel(url, 50*time.Millisecond, func(kind string) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(kinds) == 2
	})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{UpdateReservation, UpdatePoint}, kinds, "only the two known update kinds count")
	assert.Equal(t, Connected, ch.State())
}

func TestChannelReconnectsAfterServerClose(t *testing.T) {
	var dials int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&dials, 1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if n == 1 {
			conn.Close() // first connection is dropped immediately
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"point-update"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var updates int32
	ch := NewChannel(url, 20*time.Millisecond, func(string) {
		atomic.AddInt32(&updates, 1)
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&dials) >= 2 })
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&updates) == 1 })
}

func TestChannelKeepsRetryingWhileServerIsDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close() // refuse connections

	ch := NewChannel(url, 10*time.Millisecond, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go ch.Run(ctx)

	time.Sleep(80 * time.Millisecond)
	assert.NotEqual(t, Connected, ch.State())

	cancel()
	waitFor(t, time.Second, func() bool { return ch.State() == Disconnected })
}

func TestChannelStopsOnContextCancel(t *testing.T) {
	url := newSocketServer(t, nil)

	ch := NewChannel(url, 10*time.Millisecond, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	go ch.Run(ctx)
	waitFor(t, 2*time.Second, func() bool { return ch.State() == Connected })

	cancel()
	waitFor(t, 2*time.Second, func() bool { return ch.State() == Disconnected })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
}
