package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"mime"
	"regexp"
	"strings"

	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/imageprocessor"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/models/chat"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/internal/storage"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// maxAttachmentSize - ограничение на декодированное вложение
const maxAttachmentSize = 10 << 20

// расширение идет в ключ хранилища, поэтому только [a-z0-9]
var attachmentExt = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

type ChatService interface {
	StartConversation(db *gorm.DB, userID, receiverSlug string) (*dto.ConversationResponse, error)
	ListConversations(db *gorm.DB, userID string) ([]*dto.ConversationResponse, error)
	ListMessages(db *gorm.DB, userID, conversationID string, page, pageSize int) (*dto.PaginatedResponse, error)
	PostMessage(db *gorm.DB, userID, conversationID string, req *dto.PostMessageRequest) (*dto.MessageResponse, error)
	// IsParticipant используется при подключении к комнате по websocket
	IsParticipant(db *gorm.DB, userID, conversationID string) (bool, error)
}

type ChatServiceImpl struct {
	chatRepo    repositories.ChatRepository
	profileRepo repositories.ProfileRepository
	storage     storage.Storage
	images      *imageprocessor.Processor
	bus         *events.Bus
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	profileRepo repositories.ProfileRepository,
	store storage.Storage,
	bus *events.Bus,
) ChatService {
	return &ChatServiceImpl{
		chatRepo:    chatRepo,
		profileRepo: profileRepo,
		storage:     store,
		images:      imageprocessor.NewProcessor(85, imageprocessor.SizeAttachment),
		bus:         bus,
	}
}

// StartConversation возвращает существующий диалог для пары, если он есть
func (s *ChatServiceImpl) StartConversation(db *gorm.DB, userID, receiverSlug string) (*dto.ConversationResponse, error) {
	initiator, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.profileRepo.FindBySlug(db, receiverSlug)
	if err != nil {
		return nil, handleProfileError(err)
	}
	if receiver.ID == initiator.ID {
		return nil, apperrors.ErrSelfChat
	}

	conv, created, err := s.chatRepo.FindOrCreateConversation(db, initiator.ID, receiver.ID)
	if err != nil {
		return nil, handleChatError(err)
	}
	if created {
		logger.CtxInfo(ctxOf(db), "Conversation started", "conversation_id", conv.ID, "receiver_id", receiver.ID)
	}

	return &dto.ConversationResponse{
		ID:        conv.ID,
		Companion: toProfileShort(receiver),
		UpdatedAt: conv.UpdatedAt,
	}, nil
}

func (s *ChatServiceImpl) ListConversations(db *gorm.DB, userID string) ([]*dto.ConversationResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.chatRepo.ListConversations(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.ConversationResponse, 0, len(list))
	for i := range list {
		conv := &list[i]
		companion := conv.Receiver
		if conv.ReceiverID == profile.ID {
			companion = conv.Initiator
		}
		resp := &dto.ConversationResponse{
			ID:        conv.ID,
			Companion: toProfileShort(companion),
			UpdatedAt: conv.UpdatedAt,
		}

		last, err := s.chatRepo.LastMessage(db, conv.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if last != nil {
			resp.LastMessage = s.toMessageResponse(db, last, "")
		}
		result = append(result, resp)
	}
	return result, nil
}

// ListMessages - от новых к старым
func (s *ChatServiceImpl) ListMessages(db *gorm.DB, userID, conversationID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	_, conv, err := s.participant(db, userID, conversationID)
	if err != nil {
		return nil, err
	}
	list, total, err := s.chatRepo.ListMessages(db, conv.ID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.MessageResponse, 0, len(list))
	for i := range list {
		items = append(items, s.toMessageResponse(db, &list[i], ""))
	}
	return buildPaginatedResponse(items, total, page, pageSize), nil
}

func (s *ChatServiceImpl) PostMessage(db *gorm.DB, userID, conversationID string, req *dto.PostMessageRequest) (*dto.MessageResponse, error) {
	text := strings.TrimSpace(req.Body())
	if text == "" && req.Attachment == nil {
		return nil, apperrors.ValidationError(map[string]string{"text": "Message must contain text or an attachment"})
	}

	sender, conv, err := s.participant(db, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &chat.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Text:           text,
	}
	if req.Attachment != nil {
		path, err := s.saveAttachment(db, req.Attachment)
		if err != nil {
			return nil, err
		}
		msg.Attachment = &path
	}

	if err := s.chatRepo.CreateMessage(db, msg); err != nil {
		return nil, apperrors.InternalError(err)
	}

	payload := events.MessagePostedPayload{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		SenderID:       sender.ID,
		SenderName:     sender.FullName(),
		RecipientID:    conv.Other(sender.ID),
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}
	resp := s.toMessageResponse(db, msg, sender.FullName())
	if msg.Attachment != nil {
		payload.Attachment = *msg.Attachment
		payload.AttachmentURL = resp.AttachmentURL
	}
	publish(db, s.bus, events.New(events.MessagePosted, payload))

	return resp, nil
}

func (s *ChatServiceImpl) IsParticipant(db *gorm.DB, userID, conversationID string) (bool, error) {
	_, _, err := s.participant(db, userID, conversationID)
	if errors.Is(err, apperrors.ErrConversationAccessDenied) {
		return false, nil
	}
	return err == nil, err
}

func (s *ChatServiceImpl) participant(db *gorm.DB, userID, conversationID string) (*models.UserProfile, *chat.Conversation, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	conv, err := s.chatRepo.FindConversationByID(db, conversationID)
	if err != nil {
		return nil, nil, handleChatError(err)
	}
	if !conv.HasParticipant(profile.ID) {
		return nil, nil, apperrors.ErrConversationAccessDenied
	}
	return profile, conv, nil
}

// saveAttachment кладет файл в chat/<16 hex>.<ext>
func (s *ChatServiceImpl) saveAttachment(db *gorm.DB, att *dto.AttachmentRequest) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(att.Format), "."))
	if !attachmentExt.MatchString(ext) || s.storage == nil {
		return "", apperrors.ErrInvalidAttachment
	}
	data, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil || len(data) == 0 || len(data) > maxAttachmentSize {
		return "", apperrors.ErrInvalidAttachment
	}
	if imageprocessor.IsImageFormat(ext) {
		if data, err = s.images.Shrink(data); err != nil {
			return "", apperrors.ErrInvalidAttachment
		}
	}

	name, err := storage.RandomName()
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	path := "chat/" + name + "." + ext

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Save(ctxOf(db), path, bytes.NewReader(data), contentType); err != nil {
		logger.CtxWithError(ctxOf(db), "Failed to save chat attachment", err, "path", path)
		return "", apperrors.InternalError(err)
	}
	return path, nil
}

func (s *ChatServiceImpl) toMessageResponse(db *gorm.DB, m *chat.Message, senderName string) *dto.MessageResponse {
	resp := &dto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     senderName,
		Text:           m.Text,
		Attachment:     m.Attachment,
		CreatedAt:      m.CreatedAt,
	}
	if m.Attachment != nil {
		url, err := s.storage.GetURL(ctxOf(db), *m.Attachment)
		if err != nil {
			logger.CtxWarn(ctxOf(db), "Failed to build attachment URL", "error", err.Error(), "path", *m.Attachment)
		} else {
			resp.AttachmentURL = url
		}
	}
	return resp
}

func handleChatError(err error) error {
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return apperrors.ErrConversationNotFound
	}
	return internalOr(err)
}
