package integration_test

import (
	"net/http"
	"net/url"
	"testing"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogPage struct {
	Data  []dto.CatalogItemResponse `json:"data"`
	Total int64                     `json:"total"`
}

func TestEquipment_HideAndSold(t *testing.T) {
	ts := NewTestServer(t)
	sellerToken, _, _ := ts.Login(t, "seller@test.kg", models.TierNone)
	buyerToken, _, _ := ts.Login(t, "buyer@test.kg", models.TierNone)

	res, body := ts.SendRequest(t, "POST", "/add-equipment/", sellerToken, map[string]interface{}{
		"title":    "Оверлок Juki",
		"price":    42000,
		"category": "Швейные машины",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var item dto.CatalogItemResponse
	Decode(t, body, &item)
	assert.Equal(t, models.CatalogEquipment, item.Kind)
	assert.Equal(t, 1, item.Quantity)

	var page catalogPage
	res, body = ts.SendRequest(t, "GET", "/equipment-list/?category="+url.QueryEscape("Швейные машины"), buyerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &page)
	assert.EqualValues(t, 1, page.Total)

	// скрытое видит только автор
	res, _ = ts.SendRequest(t, "POST", "/equipment-hide/"+item.Slug+"/", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, body = ts.SendRequest(t, "POST", "/equipment-hide/"+item.Slug+"/", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, "GET", "/equipment-list/", buyerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &page)
	assert.EqualValues(t, 0, page.Total)
	res, _ = ts.SendRequest(t, "GET", "/equipment-detail/"+item.Slug+"/", buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, body = ts.SendRequest(t, "POST", "/equipment-sold/"+item.Slug+"/", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &item)
	assert.True(t, item.Sold)
}

func TestVacancy_RequiresOrganization(t *testing.T) {
	ts := NewTestServer(t)
	soloToken, _, _ := ts.Login(t, "solo@test.kg", models.TierNone)
	ownerToken, _, _ := ts.Login(t, "owner@test.kg", models.TierBasic)

	vacancy := map[string]interface{}{"title": "Швея", "salary": 30000}

	res, _ := ts.SendRequest(t, "POST", "/add-vacancy/", soloToken, vacancy)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "без активной организации вакансию не создать")

	res, body := ts.SendRequest(t, "POST", "/organization/", ownerToken, map[string]interface{}{"title": "Ателье"})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, "POST", "/add-vacancy/", ownerToken, vacancy)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var item dto.CatalogItemResponse
	Decode(t, body, &item)
	require.NotNil(t, item.OrganizationID)

	// у вакансий нет лайков
	res, _ = ts.SendRequest(t, "POST", "/vacancy-like/"+item.Slug+"/", soloToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
