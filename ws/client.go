package ws

import (
	"context"
	"time"

	"orgmarket_backend/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 20
	sendBuffer     = 64
)

// SignalFunc выполняется на пишущей горутине клиента и возвращает кадр для отправки
// (nil - ничего не отправлять)
type SignalFunc func(ctx context.Context, signal string) (any, error)

// FrameFunc обрабатывает входящий текстовый кадр клиента
type FrameFunc func(ctx context.Context, c *Client, data []byte)

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	group string
	send  chan outbound

	ctx    context.Context
	cancel context.CancelFunc

	onSignal SignalFunc
	onFrame  FrameFunc
}

func newClient(ctx context.Context, hub *Hub, conn *websocket.Conn, group string) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		hub:    hub,
		conn:   conn,
		group:  group,
		send:   make(chan outbound, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Request ставит сигнал в очередь этого подключения
func (c *Client) Request(signal string) {
	c.hub.sendTo(c, outbound{signal: signal})
}

// Reply ставит кадр в очередь этого подключения
func (c *Client) Reply(frame any) {
	c.hub.sendTo(c, outbound{frame: frame})
}

// start регистрирует клиента и запускает обе горутины
func (c *Client) start() {
	if !c.hub.Register(c) {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.cancel()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(c.ctx, "WebSocket read error", "error", err.Error(), "group", c.group)
			}
			return
		}
		if msgType != websocket.TextMessage || c.onFrame == nil {
			continue
		}
		c.onFrame(c.ctx, c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			frame := msg.frame
			if msg.signal != "" {
				if c.onSignal == nil {
					continue
				}
				var err error
				frame, err = c.onSignal(c.ctx, msg.signal)
				if err != nil {
					logger.CtxWithError(c.ctx, "WebSocket signal handling failed", err, "signal", msg.signal, "group", c.group)
					continue
				}
				if frame == nil {
					continue
				}
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			}

			if err := c.conn.WriteJSON(frame); err != nil {
				logger.CtxWarn(c.ctx, "WebSocket write error", "error", err.Error(), "group", c.group)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
