package ws

import (
	"context"
	"fmt"

	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"
)

// RelayChat подписывает хаб на новые сообщения: кадр уходит в комнату диалога
func (h *Hub) RelayChat(bus *events.Bus) {
	bus.Subscribe(events.MessagePosted, "ws-chat-relay", func(_ context.Context, e events.Event) error {
		p, ok := e.Payload.(events.MessagePostedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Kind)
		}
		h.Broadcast(services.ChatGroup(p.ConversationID), chatFrame(p))
		return nil
	})
}

func chatFrame(p events.MessagePostedPayload) dto.MessageResponse {
	frame := dto.MessageResponse{
		ID:             p.MessageID,
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		SenderName:     p.SenderName,
		Text:           p.Text,
		AttachmentURL:  p.AttachmentURL,
		CreatedAt:      p.CreatedAt,
	}
	if p.Attachment != "" {
		attachment := p.Attachment
		frame.Attachment = &attachment
	}
	return frame
}
