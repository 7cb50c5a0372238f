package engine

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mwiater/simlab/internal/logging"
	"github.com/valyala/fastjson"
)

// Bridge operations.
const (
	OpStep              = "simulation.step"
	OpTime              = "simulation.time"
	OpLaneAllowed       = "lane.getAllowed"
	OpLaneSetAllowed    = "lane.setAllowed"
	OpLaneSetDisallowed = "lane.setDisallowed"
	OpPluginLoad        = "plugin.load"
	OpClose             = "close"
)

type request struct {
	ID   uint64         `json:"id"`
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// WSConn is a Conn over the engine's websocket control bridge. Each call
// writes one JSON request and waits for the reply carrying the same id.
type WSConn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	parser fastjson.Parser
	nextID uint64
	lost   bool
	closed bool
}

// Dial connects to the control bridge at rawURL.
func Dial(ctx context.Context, rawURL string, handshakeTimeout time.Duration) (*WSConn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url %q: %w", rawURL, err)
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect to engine bridge %s: %w", u.Redacted(), err)
	}
	return &WSConn{ws: ws}, nil
}

func (c *WSConn) Step(ctx context.Context) error {
	return c.call(ctx, OpStep, nil, nil)
}

func (c *WSConn) Time(ctx context.Context) (float64, error) {
	var t float64
	err := c.call(ctx, OpTime, nil, func(v *fastjson.Value) error {
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("simulation time: %w", err)
		}
		t = f
		return nil
	})
	return t, err
}

func (c *WSConn) LaneAllowed(ctx context.Context, laneID string) ([]string, error) {
	var classes []string
	err := c.call(ctx, OpLaneAllowed, map[string]any{"lane": laneID}, func(v *fastjson.Value) error {
		if v.Type() == fastjson.TypeNull {
			return nil
		}
		items, err := v.Array()
		if err != nil {
			return fmt.Errorf("allowed classes for %s: %w", laneID, err)
		}
		classes = make([]string, 0, len(items))
		for _, item := range items {
			b, err := item.StringBytes()
			if err != nil {
				return fmt.Errorf("allowed classes for %s: %w", laneID, err)
			}
			classes = append(classes, string(b))
		}
		return nil
	})
	return classes, err
}

func (c *WSConn) SetLaneAllowed(ctx context.Context, laneID string, classes []string) error {
	return c.call(ctx, OpLaneSetAllowed, map[string]any{"lane": laneID, "classes": nonNil(classes)}, nil)
}

func (c *WSConn) SetLaneDisallowed(ctx context.Context, laneID string, classes []string) error {
	return c.call(ctx, OpLaneSetDisallowed, map[string]any{"lane": laneID, "classes": nonNil(classes)}, nil)
}

func (c *WSConn) LoadPlugin(ctx context.Context, configFile string) error {
	return c.call(ctx, OpPluginLoad, map[string]any{"config": configFile}, nil)
}

// Close asks the engine to shut down and closes the socket. Safe to call twice.
func (c *WSConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	lost := c.lost
	c.mu.Unlock()

	if !lost {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.call(ctx, OpClose, nil, nil); err != nil {
			logging.Debugf("engine close request: %v", err)
		}
		cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.ws.Close()
}

// call sends op and hands the reply's result to decode while the lock is held,
// since parsed values are only valid until the next parse.
func (c *WSConn) call(ctx context.Context, op string, args map[string]any, decode func(*fastjson.Value) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.lost {
		return fmt.Errorf("%s: %w", op, ErrConnectionLost)
	}

	deadline, _ := ctx.Deadline()
	_ = c.ws.SetWriteDeadline(deadline)
	_ = c.ws.SetReadDeadline(deadline)
	// Cancellation without a deadline still has to unblock a pending read.
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.UnderlyingConn().SetReadDeadline(time.Now())
	})
	defer stop()

	c.nextID++
	req := request{ID: c.nextID, Op: op, Args: args}
	logging.LogCommand("out", op, req)
	if err := c.ws.WriteJSON(req); err != nil {
		return c.transportFailure(op, err)
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if op == OpClose && websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				// The reply may still arrive later, so the stream is out of step.
				c.lost = true
				return fmt.Errorf("%s: %w", op, ctxErr)
			}
			return c.transportFailure(op, err)
		}
		logging.LogCommand("in", op, data)
		v, err := c.parser.ParseBytes(data)
		if err != nil {
			return fmt.Errorf("%s: malformed reply: %w", op, err)
		}
		if v.GetUint64("id") != req.ID {
			continue
		}
		if !v.GetBool("ok") {
			msg := string(v.GetStringBytes("error"))
			if msg == "" {
				msg = "unknown error"
			}
			return &CommandError{Op: op, Message: msg}
		}
		if decode == nil {
			return nil
		}
		result := v.Get("result")
		if result == nil {
			return fmt.Errorf("%s: reply has no result", op)
		}
		return decode(result)
	}
}

// transportFailure marks the connection unusable; any socket error leaves the
// request/reply stream out of step.
func (c *WSConn) transportFailure(op string, err error) error {
	c.lost = true
	return fmt.Errorf("%s: %w: %v", op, ErrConnectionLost, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
