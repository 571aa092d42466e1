package services

import (
	"context"
	"testing"
	"time"

	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, env *testEnv, at time.Time) {
	t.Helper()
	env.svc.NotificationService.(*NotificationServiceImpl).now = func() time.Time { return at }
}

func TestNotificationService_DedupWithinMinute(t *testing.T) {
	env := newTestEnv(t)
	_, author := env.user(t, "author", models.TierNone)
	fixedClock(t, env, time.Date(2026, 3, 1, 10, 15, 5, 0, time.UTC))

	ev := events.New(events.OrderApplied, events.OrderAppliedPayload{
		OrderSlug:         "shtory",
		OrderTitle:        "Шторы",
		AuthorID:          author.ID,
		OrganizationTitle: "Цех",
	})
	env.bus.Publish(context.Background(), ev)
	env.bus.Publish(context.Background(), ev)

	list := env.notifications(t, author.ID)
	require.Len(t, list, 1, "двойная публикация склеивается")
	assert.Equal(t, models.NotificationTypeOrder, list[0].Type)
	assert.Equal(t, "shtory", list[0].TargetSlug)
	assert.Len(t, env.signaler.groups(), 1, "сигнал только на новую запись")
	assert.Equal(t, NotificationsGroup(author.ID), env.signaler.groups()[0])

	// следующая минута - новая запись
	fixedClock(t, env, time.Date(2026, 3, 1, 10, 16, 0, 0, time.UTC))
	env.bus.Publish(context.Background(), ev)
	assert.Len(t, env.notifications(t, author.ID), 2)
}

func TestNotificationService_StatusChangeSkipsSelf(t *testing.T) {
	env := newTestEnv(t)
	_, author := env.user(t, "author", models.TierNone)

	env.bus.Publish(context.Background(), events.New(events.OrderStatusChanged, events.OrderStatusChangedPayload{
		OrderSlug: "o1", AuthorID: author.ID, From: "New", To: "Process", ChangedBy: author.ID,
	}))
	assert.Empty(t, env.notifications(t, author.ID))

	env.bus.Publish(context.Background(), events.New(events.OrderStatusChanged, events.OrderStatusChangedPayload{
		OrderSlug: "o1", AuthorID: author.ID, From: "New", To: "Process", ChangedBy: "someone",
	}))
	list := env.notifications(t, author.ID)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"order_slug":"o1","status":"Process"}`, string(list[0].Data))
}

func TestNotificationService_ReadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.NotificationService
	user, profile := env.user(t, "reader", models.TierNone)
	other, _ := env.user(t, "other", models.TierNone)

	for _, slug := range []string{"a", "b", "c"} {
		env.bus.Publish(context.Background(), events.New(events.OrderBooked, events.OrderBookedPayload{
			OrderSlug: slug, OrganizationOwnerID: profile.ID, OrganizationTitle: "Цех",
		}))
	}

	count, err := svc.UnreadCount(env.db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	list := env.notifications(t, profile.ID)
	require.Len(t, list, 3)

	assert.ErrorIs(t, svc.MarkRead(env.db, other.ID, list[0].ID), apperrors.ErrNotificationNotFound)
	require.NoError(t, svc.MarkRead(env.db, user.ID, list[0].ID))
	require.NoError(t, svc.MarkRead(env.db, user.ID, list[0].ID), "повторная отметка не ошибка")

	page, err := svc.ListForUser(env.db, user.ID, &dto.NotificationQuery{UnreadOnly: true}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	marked, err := svc.MarkAllRead(env.db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	assert.Error(t, svc.Delete(env.db, other.ID, list[1].ID), "чужое не удаляется")
	require.NoError(t, svc.Delete(env.db, user.ID, list[1].ID))

	removed, err := svc.DeleteAll(env.db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestNotificationService_PopUnread(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.NotificationService
	user, profile := env.user(t, "invitee", models.TierNone)
	fixedClock(t, env, time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC))

	env.bus.Publish(context.Background(), events.New(events.MemberInvited, events.MemberInvitedPayload{
		InviteeProfileID:  profile.ID,
		OrganizationSlug:  "atelier",
		OrganizationTitle: "Ателье",
		JobTitle:          "Швея",
	}))

	id, err := svc.ProfileIDForUser(env.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, id)

	frame, err := svc.PopUnread(env.db, profile.ID)
	require.NoError(t, err)
	require.Len(t, frame, 1)
	assert.Equal(t, "Приглашение в организацию", frame[0].Title)
	assert.Contains(t, frame[0].Description, "Ателье")
	assert.Equal(t, "09:05", frame[0].Timestamp)

	frame, err = svc.PopUnread(env.db, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, frame, "выданные помечены прочитанными")
}

func TestDedupKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 5, 10, 0, time.UTC)
	a := dedupKey("p1", models.NotificationTypeOrder, "o1", "x", at)

	assert.Len(t, a, 40)
	assert.Equal(t, a, dedupKey("p1", models.NotificationTypeOrder, "o1", "x", at.Add(30*time.Second)))
	assert.NotEqual(t, a, dedupKey("p1", models.NotificationTypeOrder, "o1", "x", at.Add(time.Minute)))
	assert.NotEqual(t, a, dedupKey("p2", models.NotificationTypeOrder, "o1", "x", at))
	assert.NotEqual(t, a, dedupKey("p1", models.NotificationTypeChat, "o1", "x", at))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "абв", truncate("абв", 3))
	assert.Equal(t, "аб…", truncate("абв", 2))
}

func TestPublish_SurvivesCancelledRequest(t *testing.T) {
	env := newTestEnv(t)
	_, author := env.user(t, "author", models.TierNone)

	// клиент отключился сразу после commit
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	publish(env.db.WithContext(ctx), env.bus, events.New(events.OrderApplied, events.OrderAppliedPayload{
		OrderSlug:         "shtory",
		OrderTitle:        "Шторы",
		AuthorID:          author.ID,
		OrganizationTitle: "Цех",
	}))

	assert.Equal(t, []string{"Новый отклик на заказ"}, titles(env.notifications(t, author.ID)))
}
