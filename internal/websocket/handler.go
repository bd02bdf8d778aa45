package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// TopicFunc authorizes an upgrade request and names the topic it subscribes
// to. A non-nil error rejects the request with the returned status.
type TopicFunc func(r *http.Request) (topic string, status int, err error)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, resolve TopicFunc, logger *slog.Logger) http.HandlerFunc {
	logger = logger.With("component", "websocket")
	return func(w http.ResponseWriter, r *http.Request) {
		topic, status, err := resolve(r)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // browser and terminal clients connect from any origin
		})
		if err != nil {
			logger.Warn("accept failed", "error", err)
			return
		}

		logger.Debug("client subscribed", "topic", topic)
		client := NewClient(hub, conn, topic)
		client.Run(r.Context())
	}
}
