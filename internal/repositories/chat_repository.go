package repositories

import (
	"errors"

	"orgmarket_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ChatRepository interface {
	// FindOrCreateConversation - диалог для неупорядоченной пары, created=true если новый
	FindOrCreateConversation(db *gorm.DB, initiatorID, receiverID string) (conv *chat.Conversation, created bool, err error)
	FindConversationByID(db *gorm.DB, id string) (*chat.Conversation, error)
	ListConversations(db *gorm.DB, profileID string) ([]chat.Conversation, error)
	LastMessage(db *gorm.DB, conversationID string) (*chat.Message, error)

	CreateMessage(db *gorm.DB, msg *chat.Message) error
	ListMessages(db *gorm.DB, conversationID string, page, pageSize int) ([]chat.Message, int64, error)
}

type ChatRepositoryImpl struct{}

func NewChatRepository() ChatRepository {
	return &ChatRepositoryImpl{}
}

func (r *ChatRepositoryImpl) FindOrCreateConversation(db *gorm.DB, initiatorID, receiverID string) (*chat.Conversation, bool, error) {
	key := chat.PairKey(initiatorID, receiverID)

	conv := chat.Conversation{
		InitiatorID: initiatorID,
		ReceiverID:  receiverID,
		PairKey:     key,
	}
	// гонка двух одновременных start решается уникальным pair_key
	result := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Create(&conv)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return &conv, true, nil
	}

	var existing chat.Conversation
	if err := db.First(&existing, "pair_key = ?", key).Error; err != nil {
		return nil, false, notFound(err, ErrConversationNotFound)
	}
	return &existing, false, nil
}

func (r *ChatRepositoryImpl) FindConversationByID(db *gorm.DB, id string) (*chat.Conversation, error) {
	var conv chat.Conversation
	err := db.Preload("Initiator").Preload("Receiver").First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}
	return &conv, nil
}

func (r *ChatRepositoryImpl) ListConversations(db *gorm.DB, profileID string) ([]chat.Conversation, error) {
	var list []chat.Conversation
	err := db.Preload("Initiator").Preload("Receiver").
		Where("initiator_id = ? OR receiver_id = ?", profileID, profileID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

func (r *ChatRepositoryImpl) LastMessage(db *gorm.DB, conversationID string) (*chat.Message, error) {
	var msg chat.Message
	err := db.Where("conversation_id = ?", conversationID).Order("created_at DESC").First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateMessage также поднимает диалог наверх списка
func (r *ChatRepositoryImpl) CreateMessage(db *gorm.DB, msg *chat.Message) error {
	if err := db.Create(msg).Error; err != nil {
		return err
	}
	return db.Model(&chat.Conversation{}).
		Where("id = ?", msg.ConversationID).
		Update("updated_at", msg.CreatedAt).Error
}

func (r *ChatRepositoryImpl) ListMessages(db *gorm.DB, conversationID string, page, pageSize int) ([]chat.Message, int64, error) {
	q := db.Model(&chat.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []chat.Message
	err := q.Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&list).Error
	return list, total, err
}
