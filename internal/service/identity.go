package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linemk/ecofinds/internal/domain/models"
	security "github.com/linemk/ecofinds/internal/jwt-new"
	"github.com/linemk/ecofinds/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen    = 8
	maxPasswordLen    = 72 // предел bcrypt
	maxDisplayNameLen = 80
)

type IdentityService struct {
	log         *slog.Logger
	userRepo    storage.UserStorage
	sessionRepo storage.SessionStorage
	tokenTTL    time.Duration
	secret      string
}

func NewIdentityService(
	log *slog.Logger,
	userRepo storage.UserStorage,
	sessionRepo storage.SessionStorage,
	tokenTTL time.Duration,
	secret string,
) *IdentityService {
	return &IdentityService{
		log:         log,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenTTL:    tokenTTL,
		secret:      secret,
	}
}

type IdentityServiceInterface interface {
	Signup(ctx context.Context, email, password, displayName string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, sess *models.Session) error
	Profile(ctx context.Context, sess *models.Session) (*models.User, error)
	UpdateProfile(ctx context.Context, sess *models.Session, displayName string) (*models.User, error)
}

// AuthResult — итог входа: пользователь, созданная сессия и токен, который на неё ссылается.
type AuthResult struct {
	User    *models.User
	Session *models.Session
	Token   string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validDisplayName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= maxDisplayNameLen
}

// Signup регистрирует пользователя и сразу открывает для него сессию.
// Пароль хранится только в виде bcrypt-хэша.
func (s *IdentityService) Signup(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	const op = "service.Identity.Signup"
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	logger := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%s: malformed email: %w", op, ErrInvalidInput)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%s: password must be %d-%d bytes: %w", op, minPasswordLen, maxPasswordLen, ErrInvalidInput)
	}
	if !validDisplayName(displayName) {
		return nil, fmt.Errorf("%s: bad display name: %w", op, ErrInvalidInput)
	}

	_, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		logger.Info("email already registered")
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	case !errors.Is(err, storage.ErrUserNotFound):
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := s.userRepo.CreateUser(ctx, &models.User{
		Email:       email,
		DisplayName: displayName,
		PassHash:    passHash,
	})
	if err != nil {
		// гонка двух регистраций на один email
		if errors.Is(err, storage.ErrEmailTaken) {
			logger.Info("email already registered")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user signed up", slog.Int64("userID", user.ID))
	return s.openSession(ctx, op, user)
}

// Login проверяет пароль и открывает сессию.
// Неизвестный email и неверный пароль дают одну и ту же ошибку.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "service.Identity.Login"
	email = normalizeEmail(email)
	logger := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, fmt.Errorf("%s: invalid credentials: %w", op, ErrUnauthorized)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, fmt.Errorf("%s: invalid credentials: %w", op, ErrUnauthorized)
	}

	return s.openSession(ctx, op, user)
}

func (s *IdentityService) openSession(ctx context.Context, op string, user *models.User) (*AuthResult, error) {
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", user.ID))

	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.sessionRepo.CreateSession(ctx, sess); err != nil {
		logger.Error("failed to create session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create session: %w", op, err)
	}

	token, err := security.NewToken(user, sess.ID, s.tokenTTL, s.secret)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully")
	return &AuthResult{User: user, Session: sess, Token: token}, nil
}

// Logout удаляет сессию, после чего выданный под неё токен перестаёт приниматься.
func (s *IdentityService) Logout(ctx context.Context, sess *models.Session) error {
	const op = "service.Identity.Logout"
	if err := requireSession(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))

	if err := s.sessionRepo.DeleteSession(ctx, sess.ID); err != nil {
		logger.Error("failed to delete session", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete session: %w", op, err)
	}

	logger.Info("user logged out")
	return nil
}

func (s *IdentityService) Profile(ctx context.Context, sess *models.Session) (*models.User, error) {
	const op = "service.Identity.Profile"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	return user, nil
}

// UpdateProfile меняет только отображаемое имя.
func (s *IdentityService) UpdateProfile(ctx context.Context, sess *models.Session, displayName string) (*models.User, error) {
	const op = "service.Identity.UpdateProfile"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))

	displayName = strings.TrimSpace(displayName)
	if !validDisplayName(displayName) {
		return nil, fmt.Errorf("%s: bad display name: %w", op, ErrInvalidInput)
	}

	user, err := s.userRepo.UpdateDisplayName(ctx, sess.UserID, displayName)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to update display name", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update display name: %w", op, err)
	}

	logger.Info("profile updated")
	return user, nil
}

// FindSession нужен middleware: возвращает nil, если сессии нет или она истекла.
func (s *IdentityService) FindSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "service.Identity.FindSession"

	sess, err := s.sessionRepo.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, nil
		}
		s.log.Error("failed to get session", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get session: %w", op, err)
	}
	return sess, nil
}
