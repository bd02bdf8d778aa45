package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one subscriber. The feed is server to client only; a data frame
// from the peer closes the connection.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	topic string
	send  chan Message
}

func NewClient(hub *Hub, conn *ws.Conn, topic string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		topic: topic,
		send:  make(chan Message, sendBufferSize),
	}
}

// Run greets the peer with the subscribed topic, then forwards published
// messages until either side goes away.
func (c *Client) Run(ctx context.Context) {
	c.send <- Message{Type: TypeSubscribed, Extra: map[string]any{"topic": c.topic}}
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx = c.conn.CloseRead(ctx)
	if err := c.writeLoop(ctx); err != nil {
		c.conn.Close(ws.StatusInternalError, "write failed")
		return
	}
	c.conn.Close(ws.StatusNormalClosure, "")
}

func (c *Client) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.write(ctx, func(ctx context.Context) error {
				return wsjson.Write(ctx, c.conn, msg)
			}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.write(ctx, c.conn.Ping); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) write(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return fn(ctx)
}
