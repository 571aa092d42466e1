package services

import (
	"sync"
	"testing"
	"time"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/cache"
	"orgmarket_backend/internal/email"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/internal/storage"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/test/helpers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedSignal struct {
	group  string
	signal string
}

type recordingSignaler struct {
	mu      sync.Mutex
	signals []recordedSignal
}

func (r *recordingSignaler) Signal(group, signal string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, recordedSignal{group: group, signal: signal})
}

func (r *recordingSignaler) groups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.signals))
	for _, s := range r.signals {
		out = append(out, s.group)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	bus      *events.Bus
	svc      *ServiceContainer
	mail     *email.LogProvider
	signaler *recordingSignaler
	redis    *miniredis.Miniredis
	tokens   *auth.TokenManager
	store    *storage.LocalStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := helpers.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := email.NewTemplateManager("")
	require.NoError(t, err)
	provider := email.NewLogProvider()

	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/media"})
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		bus:      events.NewBus(),
		mail:     provider,
		signaler: &recordingSignaler{},
		redis:    mr,
		tokens:   auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour),
		store:    store,
	}
	env.svc = NewServiceContainer(Dependencies{
		DB:            db,
		Tokens:        env.tokens,
		DenyList:      cache.NewRedisDenyList(client),
		Mailer:        email.NewMailer(provider, templates),
		Storage:       store,
		Bus:           env.bus,
		Signaler:      env.signaler,
		RotateRefresh: true,
	})
	// письма отправляются синхронно, чтобы тест видел их сразу
	env.svc.AuthService.(*AuthServiceImpl).dispatch = func(f func()) { f() }
	return env
}

func (e *testEnv) user(t *testing.T, name string, tier models.SubscriptionTier) (*models.User, *models.UserProfile) {
	t.Helper()
	return helpers.CreateUser(t, e.db, name+"@test.kg", tier)
}

func (e *testEnv) createOrg(t *testing.T, user *models.User, title string) *dto.OrganizationResponse {
	t.Helper()
	org, err := e.svc.OrganizationService.CreateOrganization(e.db, user.ID, &dto.CreateOrganizationRequest{Title: title})
	require.NoError(t, err)
	return org
}

// hire приглашает пользователя на должность и принимает приглашение
func (e *testEnv) hire(t *testing.T, owner, member *models.User, orgSlug, jobTitleSlug string) {
	t.Helper()
	_, err := e.svc.EmployeeService.Invite(e.db, owner.ID, &dto.InviteRequest{
		Email:            member.Email,
		OrganizationSlug: orgSlug,
		JobTitleSlug:     jobTitleSlug,
	})
	require.NoError(t, err)
	require.NoError(t, e.svc.EmployeeService.AcceptInvite(e.db, member.ID, orgSlug))
}

func (e *testEnv) jobTitle(t *testing.T, owner *models.User, title string, flags models.JobTitleFlags) *dto.JobTitleResponse {
	t.Helper()
	jt, err := e.svc.JobTitleService.CreateJobTitle(e.db, owner.ID, &dto.JobTitleRequest{Title: title, JobTitleFlags: flags})
	require.NoError(t, err)
	return jt
}

func (e *testEnv) order(t *testing.T, author *models.User, title string) *dto.OrderResponse {
	t.Helper()
	o, err := e.svc.OrderService.CreateOrder(e.db, author.ID, &dto.CreateOrderRequest{Title: title, Price: 1000})
	require.NoError(t, err)
	return o
}

func (e *testEnv) notifications(t *testing.T, profileID string) []models.Notification {
	t.Helper()
	var list []models.Notification
	require.NoError(t, e.db.Where("recipient_id = ?", profileID).Order("created_at").Find(&list).Error)
	return list
}

// errDenied сравнивается через errors.Is без учета причины отказа
var errDenied = apperrors.ErrPermissionDenied("")
