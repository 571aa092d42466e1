package services

import (
	"errors"
	"testing"
	"time"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest(email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:           email,
		Password:        "secret123",
		PasswordConfirm: "secret123",
		FirstName:       "Айбек",
		LastName:        "Исаев",
	}
}

func confirmationCode(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	var code models.ConfirmationCode
	err := env.db.Joins("JOIN user_profiles ON user_profiles.id = confirmation_codes.profile_id").
		Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("users.email = ?", email).
		First(&code).Error
	require.NoError(t, err)
	return code.Code
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.AuthService

	require.NoError(t, svc.Register(env.db, registerRequest("Aibek@Test.kg")))

	sent := env.mail.Sent()
	require.Len(t, sent, 1, "код должен уйти письмом")
	assert.Equal(t, []string{"aibek@test.kg"}, sent[0].To)

	_, err := svc.Login(env.db, &dto.LoginRequest{Email: "aibek@test.kg", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotVerified)

	err = svc.VerifyEmail(env.db, &dto.VerifyEmailRequest{Email: "aibek@test.kg", Code: "xxxx"})
	assert.ErrorIs(t, err, apperrors.ErrCodeMismatch)

	code := confirmationCode(t, env, "aibek@test.kg")
	assert.Contains(t, sent[0].HTMLBody, code)
	require.NoError(t, svc.VerifyEmail(env.db, &dto.VerifyEmailRequest{Email: "aibek@test.kg", Code: code}))

	err = svc.VerifyEmail(env.db, &dto.VerifyEmailRequest{Email: "aibek@test.kg", Code: code})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVerified)

	_, err = svc.Login(env.db, &dto.LoginRequest{Email: "aibek@test.kg", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	resp, err := svc.Login(env.db, &dto.LoginRequest{Email: "aibek@test.kg", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	assert.NotEmpty(t, resp.Data.Slug)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.AuthService

	req := registerRequest("a@test.kg")
	req.PasswordConfirm = "other1234"
	assert.ErrorIs(t, svc.Register(env.db, req), apperrors.ErrPasswordMismatch)

	req = registerRequest("a@test.kg")
	req.Password, req.PasswordConfirm = "short1", "short1"
	assert.ErrorIs(t, svc.Register(env.db, req), apperrors.ErrWeakPassword)

	require.NoError(t, svc.Register(env.db, registerRequest("a@test.kg")))
	assert.ErrorIs(t, svc.Register(env.db, registerRequest("A@test.kg")), apperrors.ErrEmailTaken)
}

func TestAuthService_CodeExpires(t *testing.T) {
	env := newTestEnv(t)
	impl := env.svc.AuthService.(*AuthServiceImpl)

	require.NoError(t, impl.Register(env.db, registerRequest("late@test.kg")))
	code := confirmationCode(t, env, "late@test.kg")

	impl.now = func() time.Time { return time.Now().Add(models.ConfirmationCodeTTL + time.Minute) }
	err := impl.VerifyEmail(env.db, &dto.VerifyEmailRequest{Email: "late@test.kg", Code: code})
	assert.ErrorIs(t, err, apperrors.ErrCodeExpired)

	// повторная отправка обновляет код и срок
	impl.now = time.Now
	require.NoError(t, impl.ResendCode(env.db, "late@test.kg"))
	code = confirmationCode(t, env, "late@test.kg")
	require.NoError(t, impl.VerifyEmail(env.db, &dto.VerifyEmailRequest{Email: "late@test.kg", Code: code}))
	assert.Len(t, env.mail.Sent(), 2)
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.AuthService
	helpers.CreateUser(t, env.db, "tok@test.kg", models.TierNone)

	login, err := svc.Login(env.db, &dto.LoginRequest{Email: "tok@test.kg", Password: helpers.DefaultPassword})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(env.db, login.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)
	require.NotEmpty(t, refreshed.Refresh, "ротация включена")

	// старый refresh уже отозван ротацией
	_, err = svc.Refresh(env.db, login.Refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	require.NoError(t, svc.Logout(env.db, refreshed.Refresh))
	require.NoError(t, svc.Logout(env.db, refreshed.Refresh), "повторный logout не ошибка")

	_, err = svc.Refresh(env.db, refreshed.Refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// без redis таблица остается источником истины
	env.redis.FlushAll()
	_, err = svc.Refresh(env.db, refreshed.Refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.Refresh(env.db, login.Access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "access токен не годится для refresh")
}

func TestAuthService_Introspect(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.user(t, "intro", models.TierNone)

	login, err := env.svc.AuthService.Login(env.db, &dto.LoginRequest{Email: user.Email, Password: helpers.DefaultPassword})
	require.NoError(t, err)

	info, err := env.svc.AuthService.Introspect(login.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.UserID)
	assert.Equal(t, user.Email, info.Email)

	_, err = env.svc.AuthService.Introspect("garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestAuthService_ChangePasswordAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc.AuthService
	user, _ := env.user(t, "owner", models.TierBasic)

	err := svc.ChangePassword(env.db, user.ID, &dto.ChangePasswordRequest{
		OldPassword: "bad12345", NewPassword: "fresh1234", NewPasswordConfirm: "fresh1234",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(env.db, user.ID, &dto.ChangePasswordRequest{
		OldPassword: helpers.DefaultPassword, NewPassword: "fresh1234", NewPasswordConfirm: "fresh1234",
	}))
	_, err = svc.Login(env.db, &dto.LoginRequest{Email: user.Email, Password: "fresh1234"})
	require.NoError(t, err)

	env.createOrg(t, user, "Швейный цех")
	err = svc.DeleteAccount(env.db, user.ID)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)

	other, _ := env.user(t, "leaver", models.TierNone)
	require.NoError(t, svc.DeleteAccount(env.db, other.ID))
	_, err = svc.Login(env.db, &dto.LoginRequest{Email: other.Email, Password: helpers.DefaultPassword})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
