package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orgmarket_backend/internal/app"
	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/config"
	"orgmarket_backend/internal/email"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/storage"
	"orgmarket_backend/test/helpers"
	"orgmarket_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestServer - полный роутер приложения поверх sqlite
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Tokens *auth.TokenManager
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := helpers.NewTestDB(t)

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}

	templates, err := email.NewTemplateManager("")
	require.NoError(t, err)
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/media"})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("integration-secret", time.Hour, 24*time.Hour)
	bus := events.NewBus()
	hub := ws.NewHub()
	hub.RelayChat(bus)

	svc := services.NewServiceContainer(services.Dependencies{
		DB:            db,
		Tokens:        tokens,
		Mailer:        email.NewMailer(email.NewLogProvider(), templates),
		Storage:       store,
		Bus:           bus,
		Signaler:      hub,
		RotateRefresh: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	ts := &TestServer{
		Server: httptest.NewServer(app.SetupRouter(cfg, db, svc, hub, tokens)),
		DB:     db,
		Tokens: tokens,
	}
	t.Cleanup(func() {
		ts.Server.Close()
		cancel()
		<-done
	})
	return ts
}

// SendRequest отправляет JSON запрос и возвращает ответ с телом
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(resBody)
}

// Decode читает JSON ответа в out
func Decode(t *testing.T, body string, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out), "ответ: %s", body)
}

// Login создает подтвержденного пользователя и возвращает access токен
func (ts *TestServer) Login(t *testing.T, email string, tier models.SubscriptionTier) (string, *models.User, *models.UserProfile) {
	t.Helper()
	user, profile := helpers.CreateUser(t, ts.DB, email, tier)
	pair, err := ts.Tokens.GeneratePair(user.ID, user.Email)
	require.NoError(t, err)
	return pair.Access, user, profile
}
