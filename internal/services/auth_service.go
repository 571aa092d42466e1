package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/email"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) error
	VerifyEmail(db *gorm.DB, req *dto.VerifyEmailRequest) error
	ResendCode(db *gorm.DB, email string) error
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(db *gorm.DB, refreshToken string) error
	Refresh(db *gorm.DB, refreshToken string) (*dto.RefreshResponse, error)
	Introspect(accessToken string) (*dto.IntrospectResponse, error)
	ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error
	DeleteAccount(db *gorm.DB, userID string) error
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	tokenRepo   repositories.TokenRepository
	orgRepo     repositories.OrganizationRepository
	tokens      *auth.TokenManager
	denyList    auth.DenyList // nil, если redis не настроен
	mailer      *email.Mailer
	bus         *events.Bus
	rotate      bool

	now      Clock
	dispatch func(func())
}

func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	tokenRepo repositories.TokenRepository,
	orgRepo repositories.OrganizationRepository,
	tokens *auth.TokenManager,
	denyList auth.DenyList,
	mailer *email.Mailer,
	bus *events.Bus,
	rotateRefresh bool,
) AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		orgRepo:     orgRepo,
		tokens:      tokens,
		denyList:    denyList,
		mailer:      mailer,
		bus:         bus,
		rotate:      rotateRefresh,
		now:         time.Now,
		dispatch:    func(f func()) { go f() },
	}
}

// Register - пользователь и профиль создаются одной транзакцией, код уходит на почту после commit
func (s *AuthServiceImpl) Register(db *gorm.DB, req *dto.RegisterRequest) error {
	if req.Password != req.PasswordConfirm {
		return apperrors.ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user := &models.User{
		Email:        repositories.NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(tx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return apperrors.ErrEmailTaken
		}
		return apperrors.InternalError(err)
	}

	profile := &models.UserProfile{
		UserID:     user.ID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
	}
	if err := s.profileRepo.CreateProfile(tx, profile); err != nil {
		return apperrors.InternalError(err)
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.SaveConfirmationCode(tx, profile.ID, code, s.now()); err != nil {
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	s.sendCode(user.Email, profile.FirstName, code)
	publish(db, s.bus, events.New(events.UserRegistered, events.UserRegisteredPayload{
		UserID:    user.ID,
		ProfileID: profile.ID,
		Email:     user.Email,
	}))
	return nil
}

func (s *AuthServiceImpl) VerifyEmail(db *gorm.DB, req *dto.VerifyEmailRequest) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByEmail(tx, req.Email)
	if err != nil {
		return handleAuthError(err)
	}
	if user.IsVerified {
		return apperrors.ErrAlreadyVerified
	}
	if user.Profile == nil {
		return apperrors.ErrProfileNotFound
	}

	stored, err := s.userRepo.FindConfirmationCode(tx, user.Profile.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrCodeNotFound) {
			return apperrors.ErrCodeMismatch
		}
		return apperrors.InternalError(err)
	}
	if stored.Code != req.Code {
		return apperrors.ErrCodeMismatch
	}
	if s.now().Sub(stored.UpdatedAt) > models.ConfirmationCodeTTL {
		return apperrors.ErrCodeExpired
	}

	if err := s.userRepo.SetVerified(tx, user.ID); err != nil {
		return handleAuthError(err)
	}
	if err := s.userRepo.DeleteConfirmationCode(tx, user.Profile.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return tx.Commit().Error
}

// ResendCode - новый код заменяет старый и заново отсчитывает срок жизни
func (s *AuthServiceImpl) ResendCode(db *gorm.DB, address string) error {
	user, err := s.userRepo.FindByEmail(db, address)
	if err != nil {
		return handleAuthError(err)
	}
	if user.IsVerified {
		return apperrors.ErrAlreadyVerified
	}
	if user.Profile == nil {
		return apperrors.ErrProfileNotFound
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.SaveConfirmationCode(db, user.Profile.ID, code, s.now()); err != nil {
		return apperrors.InternalError(err)
	}

	s.sendCode(user.Email, user.Profile.FirstName, code)
	return nil
}

func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		return nil, handleAuthError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, apperrors.ErrUserNotVerified
	}

	pair, err := s.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.LoginResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	}
	if user.Profile != nil {
		resp.Data.Slug = user.Profile.Slug
	}
	return resp, nil
}

// Logout - повторный logout того же токена не ошибка
func (s *AuthServiceImpl) Logout(db *gorm.DB, refreshToken string) error {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return apperrors.ErrInvalidToken
	}
	return s.revoke(db, claims)
}

func (s *AuthServiceImpl) Refresh(db *gorm.DB, refreshToken string) (*dto.RefreshResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	revoked, err := s.isRevoked(db, claims.JTI())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(db, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	resp := &dto.RefreshResponse{Access: access}

	if s.rotate {
		if err := s.revoke(db, claims); err != nil {
			return nil, err
		}
		refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		resp.Refresh = refresh
	}
	return resp, nil
}

func (s *AuthServiceImpl) Introspect(accessToken string) (*dto.IntrospectResponse, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return &dto.IntrospectResponse{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

func (s *AuthServiceImpl) ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error {
	if req.NewPassword != req.NewPasswordConfirm {
		return apperrors.ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return handleAuthError(err)
	}
	if !auth.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdatePassword(db, user.ID, hash); err != nil {
		return handleAuthError(err)
	}
	return nil
}

// DeleteAccount - владелец организаций сначала удаляет их сам
func (s *AuthServiceImpl) DeleteAccount(db *gorm.DB, userID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByID(tx, userID)
	if err != nil {
		return handleAuthError(err)
	}

	if user.Profile != nil {
		owned, err := s.orgRepo.CountByOwner(tx, user.Profile.ID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if owned > 0 {
			return apperrors.ErrInvalidOperation("auth", "Delete your organizations before deleting the account")
		}
	}

	if err := s.userRepo.DeleteUser(tx, user.ID); err != nil {
		return handleAuthError(err)
	}
	return tx.Commit().Error
}

// --- helpers ---

func (s *AuthServiceImpl) revoke(db *gorm.DB, claims *auth.Claims) error {
	expiresAt := claims.ExpiresAtTime()
	err := s.tokenRepo.Revoke(db, &models.RevokedToken{
		JTI:       claims.JTI(),
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	if s.denyList != nil {
		ctx := ctxOf(db)
		ttl := expiresAt.Sub(s.now())
		if err := s.denyList.Add(ctx, claims.JTI(), ttl); err != nil {
			logger.CtxWarn(ctx, "Не удалось записать jti в redis", "error", err)
		}
	}
	return nil
}

// isRevoked - сначала redis, таблица остается источником истины
func (s *AuthServiceImpl) isRevoked(db *gorm.DB, jti string) (bool, error) {
	if s.denyList != nil {
		ctx := ctxOf(db)
		found, err := s.denyList.Contains(ctx, jti)
		if err == nil && found {
			return true, nil
		}
		if err != nil {
			logger.CtxWarn(ctx, "Redis deny-list недоступен", "error", err)
		}
	}
	return s.tokenRepo.IsRevoked(db, jti)
}

func (s *AuthServiceImpl) sendCode(to, name, code string) {
	if s.mailer == nil {
		return
	}
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendConfirmationCode(ctx, to, name, code); err != nil {
			logger.Error("Не удалось отправить код подтверждения", "email", to, "error", err)
		}
	})
}

// generateConfirmationCode - равномерно случайный код 0000-9999
func generateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

func handleAuthError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound
	}
	return internalOr(err)
}
