// Package live maintains the push channel from the charging service. The
// backend emits untargeted change notifications; every valid one invalidates
// the station and point caches wholesale.
package live

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State of the channel connection.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Update kinds the backend emits. Anything else is ignored.
const (
	UpdateReservation = "reservation-update"
	UpdatePoint       = "point-update"
)

// Channel is a long-lived subscriber to the backend's notification socket.
// It reconnects forever on a fixed delay; there is deliberately no backoff
// growth so recovery latency stays constant.
type Channel struct {
	url       string
	reconnect time.Duration
	dialer    *websocket.Dialer
	onUpdate  func(kind string)
	logger    *zap.Logger
	state     atomic.Int32
}

// NewChannel builds the channel. onUpdate runs for every valid
// reservation-update or point-update message.
func NewChannel(url string, reconnect time.Duration, onUpdate func(kind string), logger *zap.Logger) *Channel {
	if reconnect <= 0 {
		reconnect = 5 * time.Second
	}
	return &Channel{
		url:       url,
		reconnect: reconnect,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Run connects and consumes messages until ctx is done. Connection errors are
// logged and answered with a reconnect attempt after the fixed delay; they
// never propagate to the caller.
func (c *Channel) Run(ctx context.Context) {
	for {
		c.setState(Connecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.setState(Disconnected)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("live channel dial failed", zap.String("url", c.url), zap.Error(err))
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.setState(Connected)
		c.logger.Info("live channel connected", zap.String("url", c.url))
		c.consume(ctx, conn)
		c.setState(Disconnected)

		if ctx.Err() != nil {
			return
		}
		c.logger.Info("live channel disconnected, reconnecting",
			zap.Duration("delay", c.reconnect))
		if !c.sleep(ctx) {
			return
		}
	}
}

func (c *Channel) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock the read when the context ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("live channel read failed", zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage parses one frame. Malformed payloads are logged and dropped;
// they must not tear down the connection.
func (c *Channel) handleMessage(data []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("live channel message unparseable", zap.Error(err))
		return
	}

	switch msg.Type {
	case UpdateReservation, UpdatePoint:
		c.logger.Debug("live update received", zap.String("type", msg.Type))
		if c.onUpdate != nil {
			c.onUpdate(msg.Type)
		}
	default:
		// Unknown message types are not an error.
	}
}

func (c *Channel) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.reconnect)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Channel) setState(s State) {
	c.state.Store(int32(s))
}
