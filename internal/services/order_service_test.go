package services

import (
	"testing"
	"time"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	env      *testEnv
	client   *models.User
	clientP  *models.UserProfile
	owner    *models.User
	ownerP   *models.UserProfile
	worker   *models.User
	org      *dto.OrganizationResponse
	order    *dto.OrderResponse
	workerID string
}

// newOrderFixture: клиент без организации, цех с владельцем и швеей
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &orderFixture{env: env}

	f.client, f.clientP = env.user(t, "client", models.TierNone)
	f.owner, f.ownerP = env.user(t, "shop", models.TierBasic)
	f.worker, _ = env.user(t, "seamstress", models.TierNone)

	f.org = env.createOrg(t, f.owner, "Цех")
	seamstress := env.jobTitle(t, f.owner, "Швея", models.JobTitleFlags{UpdateOrder: true})
	env.hire(t, f.owner, f.worker, f.org.Slug, seamstress.Slug)

	employees, err := env.svc.EmployeeService.ListEmployees(env.db, f.org.Slug)
	require.NoError(t, err)
	for _, e := range employees {
		if e.Profile.Slug != f.ownerP.Slug {
			f.workerID = e.ID
		}
	}
	require.NotEmpty(t, f.workerID)

	f.order = env.order(t, f.client, "Пошив штор")
	return f
}

func (f *orderFixture) book(t *testing.T) {
	t.Helper()
	require.NoError(t, f.env.svc.OrderService.Apply(f.env.db, f.owner.ID, f.order.Slug))
	_, err := f.env.svc.OrderService.Book(f.env.db, f.client.ID, f.order.Slug, f.org.Slug)
	require.NoError(t, err)
}

func (f *orderFixture) advanceTo(t *testing.T, target models.OrderStatus) {
	t.Helper()
	for _, st := range []models.OrderStatus{
		models.OrderStatusProcess, models.OrderStatusChecking,
		models.OrderStatusSending, models.OrderStatusArrived,
	} {
		_, err := f.env.svc.OrderService.AdvanceStatus(f.env.db, f.worker.ID, f.order.Slug, st)
		require.NoError(t, err)
		if st == target {
			return
		}
	}
}

func titles(list []models.Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Title)
	}
	return out
}

func TestOrderService_CreateWithoutOrg(t *testing.T) {
	f := newOrderFixture(t)

	assert.Equal(t, models.OrderStatusNew, f.order.Status)
	assert.Equal(t, models.CurrencySom, f.order.Currency)
	assert.Nil(t, f.order.OrganizationID, "у клиента нет активной организации")
	assert.False(t, f.order.IsBooked)

	// заказ владельца цеха привязан к его организации
	own := f.env.order(t, f.owner, "Образцы")
	require.NotNil(t, own.OrganizationID)
	assert.Equal(t, f.org.ID, *own.OrganizationID)

	err := f.env.svc.OrderService.Apply(f.env.db, f.owner.ID, own.Slug)
	assert.ErrorIs(t, err, apperrors.ErrOwnOrder)
}

func TestOrderService_ApplyAndBook(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	db := f.env.db

	// швея без flag_create_vacancy не откликается от имени цеха
	assert.ErrorIs(t, svc.Apply(db, f.worker.ID, f.order.Slug), errDenied)

	require.NoError(t, svc.Apply(db, f.owner.ID, f.order.Slug))
	require.NoError(t, svc.Apply(db, f.owner.ID, f.order.Slug), "повторный отклик ничего не меняет")
	assert.Equal(t, []string{"Новый отклик на заказ"}, titles(f.env.notifications(t, f.clientP.ID)))

	applicants, err := svc.ListApplicants(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, dto.ApplicantWaiting, applicants[0].Status)

	_, err = svc.Book(db, f.owner.ID, f.order.Slug, f.org.Slug)
	assert.ErrorIs(t, err, errDenied, "бронирует только автор")

	booked, err := svc.Book(db, f.client.ID, f.order.Slug, f.org.Slug)
	require.NoError(t, err)
	assert.True(t, booked.IsBooked)
	require.NotNil(t, booked.OrgWork)
	assert.Equal(t, f.org.Slug, booked.OrgWork.Slug)
	assert.NotNil(t, booked.BookedAt)
	assert.ElementsMatch(t, []string{"Новый отклик на заказ", "Заказ забронирован"}, titles(f.env.notifications(t, f.clientP.ID)),
		"автор узнает о брони")
	assert.Contains(t, titles(f.env.notifications(t, f.ownerP.ID)), "Организация выбрана исполнителем")

	applicants, err = svc.ListApplicants(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.Equal(t, dto.ApplicantApproved, applicants[0].Status)

	_, err = svc.Book(db, f.client.ID, f.order.Slug, f.org.Slug)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyBooked)
	assert.ErrorIs(t, svc.Apply(db, f.owner.ID, f.order.Slug), apperrors.ErrAlreadyBooked)

	// забронированный заказ не редактируется и не удаляется
	title := "Новое"
	_, err = svc.UpdateOrder(db, f.client.ID, f.order.Slug, &dto.UpdateOrderRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyBooked)
	assert.ErrorIs(t, svc.DeleteOrder(db, f.client.ID, f.order.Slug), apperrors.ErrAlreadyBooked)

	orgOrders, err := svc.ListOrganizationOrders(db, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, orgOrders.Booked, 1)
	assert.Equal(t, f.order.Slug, orgOrders.Booked[0].Slug)
}

func TestOrderService_BookRequiresApplication(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.env.svc.OrderService.Book(f.env.db, f.client.ID, f.order.Slug, f.org.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotApplicant)

	err = f.env.svc.OrderService.CancelApplication(f.env.db, f.owner.ID, f.order.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotApplicant)

	require.NoError(t, f.env.svc.OrderService.Apply(f.env.db, f.owner.ID, f.order.Slug))
	require.NoError(t, f.env.svc.OrderService.CancelApplication(f.env.db, f.owner.ID, f.order.Slug))
	_, err = f.env.svc.OrderService.Book(f.env.db, f.client.ID, f.order.Slug, f.org.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotApplicant)
}

func TestOrderService_StatusChain(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	db := f.env.db

	_, err := svc.AdvanceStatus(db, f.worker.ID, f.order.Slug, models.OrderStatusProcess)
	assert.ErrorIs(t, err, apperrors.ErrNotBooked)

	f.book(t)

	_, err = svc.AdvanceStatus(db, f.client.ID, f.order.Slug, models.OrderStatusProcess)
	assert.ErrorIs(t, err, errDenied, "автор не двигает статус")

	_, err = svc.AdvanceStatus(db, f.worker.ID, f.order.Slug, models.OrderStatusChecking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "шаг через статус")

	f.advanceTo(t, models.OrderStatusArrived)

	detail, err := svc.GetOrder(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusArrived, detail.Status)
	assert.NotNil(t, detail.ArrivedAt)
	require.Len(t, detail.History, 4)
	assert.Equal(t, models.OrderStatusNew, detail.History[0].From)
	assert.Equal(t, models.OrderStatusArrived, detail.History[3].To)

	_, err = svc.AdvanceStatus(db, f.worker.ID, f.order.Slug, models.OrderStatusArrived)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "после Arrived шагов нет")

	changed := 0
	for _, n := range f.env.notifications(t, f.clientP.ID) {
		if n.Title == "Статус заказа изменен" {
			changed++
			assert.Contains(t, string(n.Data), `"status"`)
		}
	}
	assert.Equal(t, 4, changed)
}

func TestOrderService_FinishAndReview(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	db := f.env.db
	f.book(t)

	rating := 5
	_, err := f.env.svc.ReviewService.CreateReview(db, f.owner.ID, f.order.Slug, &dto.ReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotCompleted)

	f.advanceTo(t, models.OrderStatusArrived)

	_, err = f.env.svc.ReviewService.CreateReview(db, f.client.ID, f.order.Slug, &dto.ReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, apperrors.ErrSelfReview)

	bad := 6
	_, err = f.env.svc.ReviewService.CreateReview(db, f.owner.ID, f.order.Slug, &dto.ReviewRequest{Rating: &bad})
	assert.Error(t, err)

	review, err := f.env.svc.ReviewService.CreateReview(db, f.owner.ID, f.order.Slug, &dto.ReviewRequest{Rating: &rating, Text: " Отлично "})
	require.NoError(t, err)
	assert.Equal(t, "Отлично", review.Text)

	_, err = f.env.svc.ReviewService.CreateReview(db, f.worker.ID, f.order.Slug, &dto.ReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, apperrors.ErrReviewExists)

	avg, err := f.env.svc.ReviewService.GetOrganizationRating(db, f.org.Slug)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, avg, 0.001)

	finished, err := svc.Finish(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.True(t, finished.IsFinished)
	assert.NotNil(t, finished.FinishedAt)

	_, err = svc.Finish(db, f.worker.ID, f.order.Slug)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFinished)

	// завершил автор: уведомление получает только владелец цеха
	assert.NotContains(t, titles(f.env.notifications(t, f.clientP.ID)), "Заказ завершен")
	assert.Contains(t, titles(f.env.notifications(t, f.ownerP.ID)), "Заказ завершен")
}

func TestOrderService_AutoFinish(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	f.book(t)
	f.advanceTo(t, models.OrderStatusArrived)

	fresh := f.env.order(t, f.client, "Свежий")
	require.NoError(t, svc.Apply(f.env.db, f.owner.ID, fresh.Slug))
	_, err := svc.Book(f.env.db, f.client.ID, fresh.Slug, f.org.Slug)
	require.NoError(t, err)

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	n, err := svc.AutoFinish(f.env.db, cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "заказ прибыл только что")

	helpers.SetArrivedAt(t, f.env.db, f.order.Slug, time.Now().Add(-8*24*time.Hour))
	n, err = svc.AutoFinish(f.env.db, cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.AutoFinish(f.env.db, cutoff, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "завершенные повторно не берутся")

	detail, err := svc.GetOrder(f.env.db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.True(t, detail.IsFinished)

	var auto []string
	for _, profileID := range []string{f.clientP.ID, f.ownerP.ID} {
		for _, n := range f.env.notifications(t, profileID) {
			if n.Title == "Заказ завершен" {
				auto = append(auto, n.Description)
			}
		}
	}
	require.Len(t, auto, 2, "автор и владелец цеха")
	assert.Contains(t, auto[0], "автоматически")
}

func TestOrderService_Workers(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	db := f.env.db

	assert.ErrorIs(t, svc.AddWorker(db, f.owner.ID, f.order.Slug, f.workerID), apperrors.ErrNotBooked)
	f.book(t)

	assert.ErrorIs(t, svc.AddWorker(db, f.client.ID, f.order.Slug, f.workerID), errDenied)
	require.NoError(t, svc.AddWorker(db, f.worker.ID, f.order.Slug, f.workerID), "назначать может любой сотрудник")

	detail, err := svc.GetOrder(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	require.Len(t, detail.Workers, 1)
	assert.Equal(t, f.workerID, detail.Workers[0].EmployeeID)
	assert.Equal(t, "Швея", detail.Workers[0].JobTitle)

	require.NoError(t, svc.RemoveWorker(db, f.owner.ID, f.order.Slug, f.workerID))
	assert.ErrorIs(t, svc.RemoveWorker(db, f.owner.ID, f.order.Slug, f.workerID), apperrors.ErrEmployeeNotFound)
}

func TestOrderService_HideAndLike(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService
	db := f.env.db

	_, err := svc.ToggleHide(db, f.owner.ID, f.order.Slug)
	assert.ErrorIs(t, err, errDenied)

	hidden, err := svc.ToggleHide(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.True(t, hidden)

	_, err = svc.GetOrder(db, f.owner.ID, f.order.Slug)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	_, err = svc.GetOrder(db, f.client.ID, f.order.Slug)
	require.NoError(t, err, "автор видит скрытый заказ")

	page, err := svc.ListOrders(db, f.owner.ID, &dto.OrderListQuery{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)

	hidden, err = svc.ToggleHide(db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.False(t, hidden)

	liked, err := svc.ToggleLike(db, f.owner.ID, f.order.Slug)
	require.NoError(t, err)
	assert.True(t, liked)

	detail, err := svc.GetOrder(db, f.owner.ID, f.order.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.Likes)
	assert.True(t, detail.Liked)

	likedPage, err := svc.ListLikedOrders(db, f.owner.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, likedPage.Total)

	liked, err = svc.ToggleLike(db, f.owner.ID, f.order.Slug)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestOrderService_DeleteUnbooked(t *testing.T) {
	f := newOrderFixture(t)
	svc := f.env.svc.OrderService

	assert.ErrorIs(t, svc.DeleteOrder(f.env.db, f.owner.ID, f.order.Slug), errDenied)
	require.NoError(t, svc.DeleteOrder(f.env.db, f.client.ID, f.order.Slug))

	_, err := svc.GetOrder(f.env.db, f.client.ID, f.order.Slug)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderService_ContractorOrgCannotBeDeleted(t *testing.T) {
	f := newOrderFixture(t)
	f.book(t)

	err := f.env.svc.OrganizationService.DeleteOrganization(f.env.db, f.owner.ID, f.org.Slug)
	assert.ErrorIs(t, err, apperrors.ErrOrganizationHasOrders)

	got, err := f.env.svc.OrderService.GetOrder(f.env.db, f.client.ID, f.order.Slug)
	require.NoError(t, err)
	assert.True(t, got.IsBooked)
	require.NotNil(t, got.OrgWork)
	assert.Equal(t, f.org.Slug, got.OrgWork.Slug)
}

func TestOrderService_DeletedOrgDetachesPostedOrders(t *testing.T) {
	f := newOrderFixture(t)
	own := f.env.order(t, f.owner, "Образцы")
	require.NotNil(t, own.OrganizationID)

	require.NoError(t, f.env.svc.OrganizationService.DeleteOrganization(f.env.db, f.owner.ID, f.org.Slug))

	var order models.Order
	require.NoError(t, f.env.db.Where("slug = ?", own.Slug).First(&order).Error)
	assert.Nil(t, order.OrganizationID, "заказ остается у автора без организации")
	assert.False(t, order.IsBooked)
}
