package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mashup/internal/core/domain"
	"github.com/samirrijal/mashup/internal/pkg/metrics"
)

// wsMessage is a client request on /ws.
type wsMessage struct {
	Action string `json:"action"` // "search" | "update" | "subscribe" | "unsubscribe"
	Q      string `json:"q,omitempty"`
	SW     string `json:"sw,omitempty"`
	NE     string `json:"ne,omitempty"`
	Kind   string `json:"kind,omitempty"` // subscribe filter, "" = all
}

// wsReply answers a search or update request, or reports subscription state.
type wsReply struct {
	Action string         `json:"action"`
	Places []domain.Place `json:"places,omitempty"`
	Status string         `json:"status,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// runQuery answers search and update actions with the same services and
// validation as the REST routes.
func runQuery(ctx context.Context, deps *Dependencies, m wsMessage) wsReply {
	reply := wsReply{Action: m.Action}

	var (
		places []domain.Place
		err    error
	)
	switch m.Action {
	case "search":
		places, err = deps.Places.Search(ctx, m.Q)
	case "update":
		var box domain.BoundingBox
		box, err = domain.ParseBoundingBox(m.SW, m.NE)
		if err == nil {
			places, err = deps.Places.Viewport(ctx, box)
		}
	default:
		reply.Error = "unknown action: " + m.Action
		return reply
	}

	if err != nil {
		reply.Error = publicError(err).Error()
		return reply
	}
	if places == nil {
		places = []domain.Place{}
	}
	reply.Places = places
	reply.Status = "ok"
	return reply
}

// WebSocketHandler answers search/update requests over a socket and, on
// "subscribe", relays published lookup events of the requested kind.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var cancelSub func()
		unsubscribe := func() {
			if cancelSub != nil {
				cancelSub()
				cancelSub = nil
			}
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsReply{Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if deps.Feed == nil {
					_ = writeJSON(wsReply{Action: m.Action, Error: "live feed unavailable"})
					continue
				}
				if m.Kind != "" && !domain.IsLookupKind(m.Kind) {
					_ = writeJSON(wsReply{Action: m.Action, Error: "unknown kind: " + m.Kind})
					continue
				}
				unsubscribe()
				cancel, err := deps.Feed.SubscribeLookups(m.Kind, func(data []byte) {
					_ = writeJSON(json.RawMessage(data))
				})
				if err != nil {
					slog.Warn("ws subscribe failed", "remote", remoteAddr, "error", err)
					_ = writeJSON(wsReply{Action: m.Action, Error: "subscribe failed"})
					continue
				}
				cancelSub = cancel
				_ = writeJSON(wsReply{Action: m.Action, Status: "subscribed"})

			case "unsubscribe":
				unsubscribe()
				_ = writeJSON(wsReply{Action: m.Action, Status: "unsubscribed"})

			default:
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				reply := runQuery(ctx, deps, m)
				cancel()
				_ = writeJSON(reply)
			}
		}

		close(done)
		unsubscribe()
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
