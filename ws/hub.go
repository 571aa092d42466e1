package ws

import (
	"context"
	"sync"

	"orgmarket_backend/internal/logger"
)

// outbound - элемент очереди клиента: либо готовый кадр, либо сигнал,
// который клиент обработает на своей пишущей горутине
type outbound struct {
	frame  any
	signal string
}

type groupMessage struct {
	group string
	msg   outbound
}

type directMessage struct {
	client *Client
	msg    outbound
}

// Hub держит группы подключений и раздает им кадры и сигналы.
// Все изменения групп происходят на горутине Run.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	group      chan groupMessage
	direct     chan directMessage

	groups map[string]map[*Client]struct{}

	done     chan struct{}
	stopOnce sync.Once
	count    chan chan int
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		group:      make(chan groupMessage, 256),
		direct:     make(chan directMessage, 64),
		groups:     make(map[string]map[*Client]struct{}),
		done:       make(chan struct{}),
		count:      make(chan chan int),
	}
}

// Run обслуживает хаб до отмены ctx, затем закрывает все подключения
func (h *Hub) Run(ctx context.Context) error {
	logger.Info("Realtime hub started")
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			total := 0
			for _, clients := range h.groups {
				for c := range clients {
					close(c.send)
					total++
				}
			}
			h.groups = make(map[string]map[*Client]struct{})
			logger.Info("Realtime hub stopped", "closed_connections", total)
			return nil

		case c := <-h.register:
			clients, ok := h.groups[c.group]
			if !ok {
				clients = make(map[*Client]struct{})
				h.groups[c.group] = clients
			}
			clients[c] = struct{}{}
			logger.Debug("Client subscribed", "group", c.group, "group_size", len(clients))

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.group:
			for c := range h.groups[m.group] {
				h.deliver(c, m.msg)
			}

		case m := <-h.direct:
			if _, ok := h.groups[m.client.group][m.client]; ok {
				h.deliver(m.client, m.msg)
			}

		case reply := <-h.count:
			total := 0
			for _, clients := range h.groups {
				total += len(clients)
			}
			reply <- total
		}
	}
}

// deliver не блокирует хаб: клиент с полной очередью отключается
func (h *Hub) deliver(c *Client, msg outbound) {
	select {
	case c.send <- msg:
	default:
		logger.Warn("Dropping slow websocket client", "group", c.group)
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.groups[c.group]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.groups, c.group)
	}
	logger.Debug("Client unsubscribed", "group", c.group)
}

// Register возвращает false, если хаб уже остановлен
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Signal реализует services.Signaler
func (h *Hub) Signal(group, signal string) {
	h.enqueue(groupMessage{group: group, msg: outbound{signal: signal}})
}

// Broadcast отправляет кадр всем подключениям группы
func (h *Hub) Broadcast(group string, frame any) {
	h.enqueue(groupMessage{group: group, msg: outbound{frame: frame}})
}

func (h *Hub) enqueue(m groupMessage) {
	select {
	case h.group <- m:
	case <-h.done:
	}
}

func (h *Hub) sendTo(c *Client, msg outbound) {
	select {
	case h.direct <- directMessage{client: c, msg: msg}:
	case <-h.done:
	}
}

// ClientCount - число подключений во всех группах
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}
