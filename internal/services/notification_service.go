package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SignalNotificationsUpdated - сигнал хабу перечитать непрочитанные
const SignalNotificationsUpdated = "notifications-updated"

// Signaler - realtime-хаб, реализуется пакетом ws
type Signaler interface {
	Signal(group, signal string)
}

func NotificationsGroup(profileID string) string {
	return "user:" + profileID + ":notifications"
}

func ChatGroup(conversationID string) string {
	return "chat:" + conversationID
}

type NotificationService interface {
	// RegisterHandlers подписывает сервис на доменные события
	RegisterHandlers(bus *events.Bus)

	ListForUser(db *gorm.DB, userID string, query *dto.NotificationQuery, page, pageSize int) (*dto.PaginatedResponse, error)
	UnreadCount(db *gorm.DB, userID string) (int64, error)
	MarkRead(db *gorm.DB, userID, id string) error
	MarkAllRead(db *gorm.DB, userID string) (int64, error)
	Delete(db *gorm.DB, userID, id string) error
	DeleteAll(db *gorm.DB, userID string) (int64, error)

	// PopUnread читает непрочитанные профиля и сразу помечает их прочитанными
	PopUnread(db *gorm.DB, profileID string) ([]dto.RealtimeNotification, error)
	ProfileIDForUser(db *gorm.DB, userID string) (string, error)
}

type NotificationServiceImpl struct {
	db               *gorm.DB
	notificationRepo repositories.NotificationRepository
	profileRepo      repositories.ProfileRepository
	signaler         Signaler
	now              Clock
}

// NewNotificationService - db используется обработчиками событий, у которых нет запроса
func NewNotificationService(
	db *gorm.DB,
	notificationRepo repositories.NotificationRepository,
	profileRepo repositories.ProfileRepository,
	signaler Signaler,
) NotificationService {
	return &NotificationServiceImpl{
		db:               db,
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		signaler:         signaler,
		now:              time.Now,
	}
}

type draft struct {
	recipient   string
	kind        models.NotificationType
	title       string
	description string
	target      string
	data        map[string]string
}

func (s *NotificationServiceImpl) RegisterHandlers(bus *events.Bus) {
	bus.Subscribe(events.MemberInvited, "notifications", s.onMemberInvited)
	bus.Subscribe(events.OrderApplied, "notifications", s.onOrderApplied)
	bus.Subscribe(events.OrderBooked, "notifications", s.onOrderBooked)
	bus.Subscribe(events.OrderStatusChanged, "notifications", s.onOrderStatusChanged)
	bus.Subscribe(events.OrderFinished, "notifications", s.onOrderFinished)
	bus.Subscribe(events.MessagePosted, "notifications", s.onMessagePosted)
}

func (s *NotificationServiceImpl) onMemberInvited(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.MemberInvitedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}
	return s.notify(ctx, draft{
		recipient:   p.InviteeProfileID,
		kind:        models.NotificationTypeOrganization,
		title:       "Приглашение в организацию",
		description: fmt.Sprintf("Вас пригласили в «%s» на должность «%s»", p.OrganizationTitle, p.JobTitle),
		target:      p.OrganizationSlug,
	})
}

func (s *NotificationServiceImpl) onOrderApplied(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.OrderAppliedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}
	return s.notify(ctx, draft{
		recipient:   p.AuthorID,
		kind:        models.NotificationTypeOrder,
		title:       "Новый отклик на заказ",
		description: fmt.Sprintf("«%s» откликнулась на заказ «%s»", p.OrganizationTitle, p.OrderTitle),
		target:      p.OrderSlug,
	})
}

func (s *NotificationServiceImpl) onOrderBooked(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.OrderBookedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}
	// автор получает подтверждение брони, владелец организации - весть о выборе
	return errors.Join(
		s.notify(ctx, draft{
			recipient:   p.AuthorID,
			kind:        models.NotificationTypeOrder,
			title:       "Заказ забронирован",
			description: fmt.Sprintf("Организация «%s» выбрана исполнителем заказа «%s»", p.OrganizationTitle, p.OrderTitle),
			target:      p.OrderSlug,
		}),
		s.notify(ctx, draft{
			recipient:   p.OrganizationOwnerID,
			kind:        models.NotificationTypeOrder,
			title:       "Организация выбрана исполнителем",
			description: fmt.Sprintf("«%s» выбрана исполнителем заказа «%s»", p.OrganizationTitle, p.OrderTitle),
			target:      p.OrderSlug,
		}),
	)
}

func (s *NotificationServiceImpl) onOrderStatusChanged(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.OrderStatusChangedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}
	if p.ChangedBy == p.AuthorID {
		return nil
	}
	return s.notify(ctx, draft{
		recipient:   p.AuthorID,
		kind:        models.NotificationTypeOrder,
		title:       "Статус заказа изменен",
		description: fmt.Sprintf("Заказ «%s» переведен из %s в %s", p.OrderTitle, p.From, p.To),
		target:      p.OrderSlug,
		data:        map[string]string{"order_slug": p.OrderSlug, "status": p.To},
	})
}

// onOrderFinished уведомляет обе стороны, кроме того, кто завершил
func (s *NotificationServiceImpl) onOrderFinished(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.OrderFinishedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}

	description := fmt.Sprintf("Заказ «%s» завершен", p.OrderTitle)
	if p.Auto {
		description = fmt.Sprintf("Заказ «%s» завершен автоматически", p.OrderTitle)
	}

	var errs []error
	for _, recipient := range []string{p.AuthorID, p.OrgWorkOwnerID} {
		if recipient == "" || recipient == p.FinishedBy {
			continue
		}
		errs = append(errs, s.notify(ctx, draft{
			recipient:   recipient,
			kind:        models.NotificationTypeOrder,
			title:       "Заказ завершен",
			description: description,
			target:      p.OrderSlug,
		}))
	}
	return errors.Join(errs...)
}

func (s *NotificationServiceImpl) onMessagePosted(ctx context.Context, e events.Event) error {
	p, ok := e.Payload.(events.MessagePostedPayload)
	if !ok {
		return errUnexpectedPayload(e)
	}
	text := p.Text
	if text == "" && p.Attachment != "" {
		text = "Вложение"
	}
	return s.notify(ctx, draft{
		recipient:   p.RecipientID,
		kind:        models.NotificationTypeChat,
		title:       "Новое сообщение",
		description: fmt.Sprintf("%s: %s", p.SenderName, truncate(text, 100)),
		target:      p.ConversationID,
	})
}

// notify сохраняет уведомление; дубль в ту же минуту отбрасывается
func (s *NotificationServiceImpl) notify(ctx context.Context, d draft) error {
	if d.recipient == "" {
		return nil
	}
	ts := s.now().UTC()

	n := &models.Notification{
		RecipientID: d.recipient,
		Type:        d.kind,
		Title:       d.title,
		Description: d.description,
		TargetSlug:  d.target,
		Timestamp:   ts,
		DedupKey:    dedupKey(d.recipient, d.kind, d.target, d.title+"\n"+d.description, ts),
	}
	if d.data != nil {
		raw, err := json.Marshal(d.data)
		if err != nil {
			return fmt.Errorf("marshal notification data: %w", err)
		}
		n.Data = datatypes.JSON(raw)
	}

	inserted, err := s.notificationRepo.Insert(s.db.WithContext(ctx), n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if !inserted {
		logger.CtxInfo(ctx, "Duplicate notification skipped", "recipient_id", d.recipient, "type", d.kind)
		return nil
	}

	if s.signaler != nil {
		s.signaler.Signal(NotificationsGroup(d.recipient), SignalNotificationsUpdated)
	}
	return nil
}

func (s *NotificationServiceImpl) ListForUser(db *gorm.DB, userID string, query *dto.NotificationQuery, page, pageSize int) (*dto.PaginatedResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	criteria := repositories.NotificationCriteria{Page: page, PageSize: pageSize}
	if query != nil {
		criteria.UnreadOnly = query.UnreadOnly
	}

	list, total, err := s.notificationRepo.ListByRecipient(db, profile.ID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	items := make([]*dto.NotificationResponse, 0, len(list))
	for i := range list {
		items = append(items, toNotificationResponse(&list[i]))
	}
	return buildPaginatedResponse(items, total, page, pageSize), nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, userID string) (int64, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return 0, err
	}
	count, err := s.notificationRepo.CountUnread(db, profile.ID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

// MarkRead - повторная отметка не ошибка; чужое уведомление выглядит как отсутствующее
func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, userID, id string) error {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return err
	}
	n, err := s.notificationRepo.FindByID(db, id)
	if err != nil {
		return handleNotificationError(err)
	}
	if n.RecipientID != profile.ID {
		return apperrors.ErrNotificationNotFound
	}
	if n.Read {
		return nil
	}
	if err := s.notificationRepo.MarkRead(db, profile.ID, n.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllRead(db *gorm.DB, userID string) (int64, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return 0, err
	}
	n, err := s.notificationRepo.MarkAllRead(db, profile.ID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return n, nil
}

func (s *NotificationServiceImpl) Delete(db *gorm.DB, userID, id string) error {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(db, profile.ID, id); err != nil {
		return handleNotificationError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) DeleteAll(db *gorm.DB, userID string) (int64, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return 0, err
	}
	n, err := s.notificationRepo.DeleteAll(db, profile.ID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return n, nil
}

func (s *NotificationServiceImpl) PopUnread(db *gorm.DB, profileID string) ([]dto.RealtimeNotification, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	list, err := s.notificationRepo.ListUnread(tx, profileID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if len(list) == 0 {
		return []dto.RealtimeNotification{}, nil
	}

	ids := make([]string, 0, len(list))
	result := make([]dto.RealtimeNotification, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
		result = append(result, dto.RealtimeNotification{
			ID:          n.ID,
			Title:       n.Title,
			Description: n.Description,
			Timestamp:   n.Timestamp.Format("15:04"),
		})
	}
	if err := s.notificationRepo.MarkRead(tx, profileID, ids...); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return result, nil
}

func (s *NotificationServiceImpl) ProfileIDForUser(db *gorm.DB, userID string) (string, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

// dedupKey - минута плюс текст: повторная публикация того же события склеивается,
// а разные события по одному заказу в ту же минуту сохраняются
func dedupKey(recipient string, kind models.NotificationType, target, content string, ts time.Time) string {
	minute := ts.Truncate(time.Minute).Format("200601021504")
	sum := sha1.Sum([]byte(recipient + "|" + string(kind) + "|" + target + "|" + minute + "|" + content))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}

func errUnexpectedPayload(e events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Kind)
}

func toNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Description: n.Description,
		TargetSlug:  n.TargetSlug,
		Timestamp:   n.Timestamp,
		Read:        n.Read,
	}
}

func handleNotificationError(err error) error {
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.ErrNotificationNotFound
	}
	return internalOr(err)
}
