package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dukerupert/mealweek/internal/websocket"
)

// Subscribe opens the change feed for s. The channel carries every message
// after the subscription greeting and is closed when ctx ends or the
// connection drops.
func (c *Client) Subscribe(ctx context.Context, s Scope) (<-chan websocket.Message, error) {
	u := c.baseURL + "/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if q := s.values(); len(q) > 0 {
		u += "?" + q.Encode()
	}

	// The feed outlives any per-request timeout.
	hc := *c.httpClient
	hc.Timeout = 0
	conn, resp, err := ws.Dial(ctx, u, &ws.DialOptions{
		HTTPClient: &hc,
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.token}},
	})
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("subscribe: status %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	var hello websocket.Message
	if err := wsjson.Read(ctx, conn, &hello); err != nil || hello.Type != websocket.TypeSubscribed {
		conn.Close(ws.StatusProtocolError, "expected greeting")
		return nil, fmt.Errorf("subscribe: no greeting: %v", err)
	}

	events := make(chan websocket.Message)
	go func() {
		defer close(events)
		defer conn.Close(ws.StatusNormalClosure, "")
		for {
			var msg websocket.Message
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			select {
			case events <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
