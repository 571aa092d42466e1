package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsSurvivesCopies(t *testing.T) {
	withDetails := ErrAlreadyBooked.WithDetails(map[string]string{"order": "x"})
	wrapped := withContext(withDetails)

	assert.True(t, Is(wrapped, ErrAlreadyBooked))
	assert.False(t, Is(wrapped, ErrNotBooked))
	assert.Nil(t, ErrAlreadyBooked.Details, "исходная ошибка не меняется")
}

func withContext(err error) error {
	return errors.Join(errors.New("context"), err)
}

func TestIsInfrastructure(t *testing.T) {
	assert.False(t, IsInfrastructure(nil))
	assert.False(t, IsInfrastructure(ErrSelfReview))
	assert.True(t, IsInfrastructure(errors.New("connection reset")))
	assert.True(t, IsInfrastructure(InternalError(errors.New("boom"))))
}

func TestHandleError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Cleanup(func() { SetDebug(true) })

	run := func(err error) (int, map[string]map[string]interface{}) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		HandleError(c, err)

		var body map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := run(ErrInvalidTransition)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_STATUS", body["error"]["code"])
	assert.Equal(t, "order", body["error"]["domain"])

	SetDebug(false)
	code, body = run(errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["error"]["message"])
	assert.NotContains(t, body["error"], "details")
}
