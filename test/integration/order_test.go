package integration_test

import (
	"fmt"
	"net/http"
	"testing"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOrderLifecycle - заказ от создания до отзыва через HTTP
func TestOrderLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	clientToken, _, _ := ts.Login(t, "client@test.kg", models.TierNone)
	ownerToken, _, _ := ts.Login(t, "shop@test.kg", models.TierBasic)

	// 1. Заказ клиента
	res, body := ts.SendRequest(t, "POST", "/add-order/", clientToken, map[string]interface{}{
		"title":    "Пошив штор",
		"price":    15000,
		"currency": "Som",
		"sizes":    []string{"S", "M"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var order dto.OrderResponse
	Decode(t, body, &order)
	assert.Equal(t, models.OrderStatusNew, order.Status)

	// 2. Организация-исполнитель
	res, body = ts.SendRequest(t, "POST", "/organization/", ownerToken, map[string]interface{}{"title": "Цех"})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var org dto.OrganizationResponse
	Decode(t, body, &org)

	// 3. Отклик и бронирование
	res, body = ts.SendRequest(t, "POST", "/order-apply/"+order.Slug+"/", ownerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, "GET", "/order-applicants/"+order.Slug+"/", clientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var applicants []dto.ApplicantResponse
	Decode(t, body, &applicants)
	require.Len(t, applicants, 1)
	assert.Equal(t, org.Slug, applicants[0].Organization.Slug)

	res, _ = ts.SendRequest(t, "POST", fmt.Sprintf("/order-book/%s/%s/", order.Slug, org.Slug), ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "бронирует только автор")

	res, body = ts.SendRequest(t, "POST", fmt.Sprintf("/order-book/%s/%s/", order.Slug, org.Slug), clientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &order)
	assert.True(t, order.IsBooked)

	// 4. Статусы двигаются только на шаг вперед
	res, body = ts.SendRequest(t, "PUT", "/update-status/"+order.Slug+"/?status=Sending", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	assert.Contains(t, body, "INVALID_STATUS")

	res, _ = ts.SendRequest(t, "PUT", "/update-status/"+order.Slug+"/?status=Process", clientToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "автор статус не двигает")

	for _, st := range []models.OrderStatus{
		models.OrderStatusProcess, models.OrderStatusChecking,
		models.OrderStatusSending, models.OrderStatusArrived,
	} {
		res, body = ts.SendRequest(t, "PUT", "/update-status/"+order.Slug+"/?status="+string(st), ownerToken, nil)
		require.Equal(t, http.StatusOK, res.StatusCode, body)
		Decode(t, body, &order)
		assert.Equal(t, st, order.Status)
	}

	// 5. Завершение и отзыв
	res, body = ts.SendRequest(t, "POST", "/order-finish/"+order.Slug+"/", clientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &order)
	assert.True(t, order.IsFinished)

	res, _ = ts.SendRequest(t, "POST", "/order-finish/"+order.Slug+"/", clientToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, _ = ts.SendRequest(t, "POST", "/order-review/"+order.Slug+"/", clientToken, map[string]interface{}{"rating": 5})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "автор заказа отзыв не пишет")

	res, body = ts.SendRequest(t, "POST", "/order-review/"+order.Slug+"/", ownerToken, map[string]interface{}{"rating": 4, "text": "Спасибо"})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, _ = ts.SendRequest(t, "POST", "/order-review/"+order.Slug+"/", ownerToken, map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// 6. История статусов в карточке заказа
	res, body = ts.SendRequest(t, "GET", "/order-detail/"+order.Slug+"/", clientToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var detail dto.OrderDetailResponse
	Decode(t, body, &detail)
	assert.Len(t, detail.History, 4)
	require.NotNil(t, detail.Review)
	assert.Equal(t, 4, detail.Review.Rating)
}

func TestOrderLike_Toggle(t *testing.T) {
	ts := NewTestServer(t)
	clientToken, _, _ := ts.Login(t, "client@test.kg", models.TierNone)
	otherToken, _, _ := ts.Login(t, "other@test.kg", models.TierNone)

	res, body := ts.SendRequest(t, "POST", "/add-order/", clientToken, map[string]interface{}{"title": "Футболки", "price": 500})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var order dto.OrderResponse
	Decode(t, body, &order)

	var toggle struct {
		Value bool `json:"value"`
	}
	res, body = ts.SendRequest(t, "POST", "/order-like/"+order.Slug+"/", otherToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &toggle)
	assert.True(t, toggle.Value)

	res, body = ts.SendRequest(t, "POST", "/order-like/"+order.Slug+"/", otherToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	Decode(t, body, &toggle)
	assert.False(t, toggle.Value)

	res, _ = ts.SendRequest(t, "GET", "/order-detail/missing/", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
