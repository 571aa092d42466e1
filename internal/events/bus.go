package events

import (
	"context"
	"fmt"
	"sync"

	"orgmarket_backend/internal/logger"
)

type Handler func(ctx context.Context, event Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus - синхронная шина внутри процесса. Обработчики вызываются в порядке
// подписки на горутине издателя; их ошибки и паники только логируются.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]subscription)}
}

// Subscribe регистрирует обработчик; name нужен только для логов
func (b *Bus) Subscribe(kind Kind, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], subscription{name: name, handler: handler})
}

// Publish вызывается только после коммита транзакции
func (b *Bus) Publish(ctx context.Context, events ...Event) {
	for _, event := range events {
		b.mu.RLock()
		subs := append([]subscription(nil), b.handlers[event.Kind]...)
		b.mu.RUnlock()

		for _, sub := range subs {
			b.dispatch(ctx, sub, event)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.EventLog(string(event.Kind), sub.name, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := sub.handler(ctx, event); err != nil {
		logger.EventLog(string(event.Kind), sub.name, err)
	}
}
