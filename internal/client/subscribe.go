package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pathWS = "/ws"

	EventLogCreated = "log_created"

	reconnectDelay = 5 * time.Second
	pongWait       = 60 * time.Second
)

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Subscribe listens for backend push events and calls onEvent for every new
// log entry. It reconnects after a fixed delay until ctx is done.
func (c *Client) Subscribe(ctx context.Context, onEvent func()) error {
	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}

	for {
		if err := c.listen(ctx, wsURL, onEvent); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("url", wsURL).Msg("push channel disconnected")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Client) listen(ctx context.Context, wsURL string, onEvent func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.Close()

	log.Info().Str("url", wsURL).Msg("push channel connected")

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read push event: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if ev.Type == EventLogCreated {
			onEvent()
		}
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + pathWS
	return u.String(), nil
}
