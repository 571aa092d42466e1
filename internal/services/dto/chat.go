package dto

import "time"

type AttachmentRequest struct {
	Data   string `json:"data" validate:"required,base64"`
	Format string `json:"format" validate:"required,alphanum,max=10"`
}

// PostMessageRequest - кадр {message, attachment?}; text принимается как старое имя поля
type PostMessageRequest struct {
	Message    string             `json:"message" validate:"omitempty,max=4000"`
	Text       string             `json:"text,omitempty" validate:"omitempty,max=4000"`
	Attachment *AttachmentRequest `json:"attachment,omitempty"`
}

// Body - текст сообщения, message приоритетнее text
func (r *PostMessageRequest) Body() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Text
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"room_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Text           string    `json:"text"`
	Attachment     *string   `json:"attachment,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationResponse struct {
	ID          string           `json:"room_id"`
	Companion   ProfileShort     `json:"companion"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
