package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeBridge emulates the engine control bridge.
type fakeBridge struct {
	mu      sync.Mutex
	time    float64
	step    float64
	lanes   map[string][]string
	plugins []string
	ops     []string
	// dropOn closes the socket without replying when this op arrives.
	dropOn string
	// stallOn reads this op but never answers it.
	stallOn string
	server *httptest.Server
}

func newFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()
	fb := &fakeBridge{step: 0.2, lanes: map[string][]string{}}
	upgrader := websocket.Upgrader{}
	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			var req struct {
				ID   uint64         `json:"id"`
				Op   string         `json:"op"`
				Args map[string]any `json:"args"`
			}
			if err := ws.ReadJSON(&req); err != nil {
				return
			}
			reply, drop := fb.handle(req.Op, req.Args)
			if drop {
				return
			}
			if reply == nil {
				continue
			}
			reply["id"] = req.ID
			if err := ws.WriteJSON(reply); err != nil {
				return
			}
			if req.Op == OpClose {
				return
			}
		}
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBridge) url() string {
	return "ws" + strings.TrimPrefix(fb.server.URL, "http")
}

func (fb *fakeBridge) handle(op string, args map[string]any) (map[string]any, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.ops = append(fb.ops, op)
	if op == fb.dropOn {
		return nil, true
	}
	if op == fb.stallOn {
		return nil, false
	}
	switch op {
	case OpStep:
		fb.time += fb.step
		return map[string]any{"ok": true}, false
	case OpTime:
		return map[string]any{"ok": true, "result": fb.time}, false
	case OpLaneAllowed:
		lane, _ := args["lane"].(string)
		allowed, ok := fb.lanes[lane]
		if !ok {
			return map[string]any{"ok": false, "error": "lane '" + lane + "' is not known"}, false
		}
		return map[string]any{"ok": true, "result": allowed}, false
	case OpLaneSetAllowed, OpLaneSetDisallowed:
		lane, _ := args["lane"].(string)
		raw, _ := args["classes"].([]any)
		classes := make([]string, 0, len(raw))
		for _, c := range raw {
			s, _ := c.(string)
			classes = append(classes, s)
		}
		if op == OpLaneSetAllowed {
			fb.lanes[lane] = classes
		} else {
			fb.lanes[lane] = []string{"disallow:" + strings.Join(classes, " ")}
		}
		return map[string]any{"ok": true}, false
	case OpPluginLoad:
		cfg, _ := args["config"].(string)
		fb.plugins = append(fb.plugins, cfg)
		return map[string]any{"ok": true}, false
	case OpClose:
		return map[string]any{"ok": true}, false
	}
	data, _ := json.Marshal(op)
	return map[string]any{"ok": false, "error": "unknown op " + string(data)}, false
}

func (fb *fakeBridge) seenOps() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.ops...)
}

func (fb *fakeBridge) lane(id string) []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.lanes[id]...)
}

func (fb *fakeBridge) loadedPlugins() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.plugins...)
}
