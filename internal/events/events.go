package events

import "time"

type Kind string

const (
	UserRegistered     Kind = "user.registered"
	MemberInvited      Kind = "organization.member_invited"
	OrderApplied       Kind = "order.applied"
	OrderBooked        Kind = "order.booked"
	OrderStatusChanged Kind = "order.status_changed"
	OrderFinished      Kind = "order.finished"
	MessagePosted      Kind = "chat.message_posted"
)

type Event struct {
	Kind       Kind
	Payload    any
	OccurredAt time.Time
}

func New(kind Kind, payload any) Event {
	return Event{Kind: kind, Payload: payload, OccurredAt: time.Now()}
}

type UserRegisteredPayload struct {
	UserID    string
	ProfileID string
	Email     string
}

type MemberInvitedPayload struct {
	OrganizationID    string
	OrganizationSlug  string
	OrganizationTitle string
	InviteeProfileID  string
	InviterProfileID  string
	JobTitle          string
}

type OrderAppliedPayload struct {
	OrderSlug         string
	OrderTitle        string
	AuthorID          string
	OrganizationTitle string
}

type OrderBookedPayload struct {
	OrderSlug           string
	OrderTitle          string
	AuthorID            string
	OrganizationID      string
	OrganizationOwnerID string
	OrganizationTitle   string
}

type OrderStatusChangedPayload struct {
	OrderSlug  string
	OrderTitle string
	AuthorID   string
	From       string
	To         string
	ChangedBy  string
}

type OrderFinishedPayload struct {
	OrderSlug      string
	OrderTitle     string
	AuthorID       string
	OrgWorkOwnerID string
	FinishedBy     string // пусто при автозавершении
	Auto           bool
}

type MessagePostedPayload struct {
	ConversationID string
	MessageID      string
	SenderID       string
	SenderName     string
	RecipientID    string
	Text           string
	Attachment     string
	AttachmentURL  string
	CreatedAt      time.Time
}
