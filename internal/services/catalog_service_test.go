package services

import (
	"errors"
	"testing"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_EquipmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.CatalogService
	seller, _ := env.user(t, "seller", models.TierNone)
	buyer, _ := env.user(t, "buyer", models.TierNone)

	item, err := svc.CreateEquipment(env.db, seller.ID, &dto.CatalogItemRequest{Title: " Оверлок ", Price: 25000})
	require.NoError(t, err)
	assert.Equal(t, "Оверлок", item.Title)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, models.CurrencySom, item.Currency)
	assert.NotEmpty(t, item.Slug)
	assert.Nil(t, item.OrganizationID)

	_, err = svc.MarkSold(env.db, buyer.ID, item.Slug)
	assert.ErrorIs(t, err, errDenied)

	sold, err := svc.MarkSold(env.db, seller.ID, item.Slug)
	require.NoError(t, err)
	assert.True(t, sold.Sold)

	liked, err := svc.ToggleLike(env.db, buyer.ID, models.CatalogEquipment, item.Slug)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := svc.GetItem(env.db, buyer.ID, models.CatalogEquipment, item.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Likes)

	hidden, err := svc.ToggleHide(env.db, seller.ID, models.CatalogEquipment, item.Slug)
	require.NoError(t, err)
	assert.True(t, hidden)

	_, err = svc.GetItem(env.db, buyer.ID, models.CatalogEquipment, item.Slug)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)
	_, err = svc.GetItem(env.db, seller.ID, models.CatalogEquipment, item.Slug)
	require.NoError(t, err, "автор видит скрытое")

	page, err := svc.ListItems(env.db, buyer.ID, models.CatalogEquipment, &dto.CatalogQuery{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)

	page, err = svc.ListItems(env.db, seller.ID, models.CatalogEquipment, &dto.CatalogQuery{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = svc.GetItem(env.db, buyer.ID, models.CatalogService, item.Slug)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound, "slug другого раздела")
}

func TestCatalogService_Vacancy(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.CatalogService
	owner, _ := env.user(t, "owner", models.TierBasic)
	hr, _ := env.user(t, "hr", models.TierNone)
	intern, _ := env.user(t, "intern", models.TierNone)
	outsider, _ := env.user(t, "outsider", models.TierNone)

	_, err := svc.CreateVacancy(env.db, outsider.ID, &dto.VacancyRequest{Title: "Швея"})
	assert.ErrorIs(t, err, errDenied, "без организации вакансию не создать")

	org := env.createOrg(t, owner, "Ателье")
	recruiter := env.jobTitle(t, owner, "Рекрутер", models.JobTitleFlags{CreateVacancy: true})
	plain := env.jobTitle(t, owner, "Стажер", models.JobTitleFlags{})
	env.hire(t, owner, hr, org.Slug, recruiter.Slug)
	env.hire(t, owner, intern, org.Slug, plain.Slug)

	_, err = svc.CreateVacancy(env.db, intern.ID, &dto.VacancyRequest{Title: "Швея"})
	assert.ErrorIs(t, err, errDenied)

	vacancy, err := svc.CreateVacancy(env.db, owner.ID, &dto.VacancyRequest{Title: "Швея", Salary: 30000})
	require.NoError(t, err)
	require.NotNil(t, vacancy.OrganizationID)
	assert.Equal(t, org.ID, *vacancy.OrganizationID)
	assert.InDelta(t, 30000, vacancy.Price, 0.01)

	// сотрудник с flag_create_vacancy управляет чужой вакансией своей организации
	hidden, err := svc.ToggleHide(env.db, hr.ID, models.CatalogVacancy, vacancy.Slug)
	require.NoError(t, err)
	assert.True(t, hidden)

	_, err = svc.ToggleHide(env.db, intern.ID, models.CatalogVacancy, vacancy.Slug)
	assert.ErrorIs(t, err, errDenied)

	_, err = svc.ToggleLike(env.db, outsider.ID, models.CatalogVacancy, vacancy.Slug)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)

	_, err = svc.ToggleHide(env.db, hr.ID, models.CatalogVacancy, vacancy.Slug)
	require.NoError(t, err)

	page, err := svc.ListItems(env.db, outsider.ID, models.CatalogVacancy, &dto.CatalogQuery{OrganizationSlug: org.Slug}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = svc.ListItems(env.db, outsider.ID, models.CatalogVacancy, &dto.CatalogQuery{OrganizationSlug: "nope"}, 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrOrganizationNotFound)
}

func TestCatalogService_ServiceFilters(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.CatalogService
	author, _ := env.user(t, "tailor", models.TierNone)

	_, err := svc.CreateService(env.db, author.ID, &dto.CatalogItemRequest{Title: "Подгонка", Category: "ремонт", Price: 500})
	require.NoError(t, err)
	_, err = svc.CreateService(env.db, author.ID, &dto.CatalogItemRequest{Title: "Вышивка", Category: "декор", Price: 900, Currency: "USD"})
	require.NoError(t, err)

	page, err := svc.ListItems(env.db, author.ID, models.CatalogService, &dto.CatalogQuery{Category: "ремонт"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	items, ok := page.Data.([]*dto.CatalogItemResponse)
	require.True(t, ok)
	assert.Equal(t, "Подгонка", items[0].Title)

	_, err = svc.MarkSold(env.db, author.ID, items[0].Slug)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound, "продается только оборудование")
}
