// Package user содержит бизнес-логику регистрации анонимных пользователей
// и разрешения сессий.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/storage"
)

var (
	// ErrSessionTaken к сессии уже привязан пользователь.
	ErrSessionTaken = errors.New("session already belongs to a user")
	// ErrInvalidSession токен сессии отсутствует, повреждён или не привязан к пользователю.
	ErrInvalidSession = errors.New("invalid session")
)

// Repository определяет методы хранилища пользователей.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserBySession(ctx context.Context, sessionID string) (*models.User, error)
}

// TokenMaker подписывает и проверяет токены сессий.
type TokenMaker interface {
	GenerateToken(sessionID string) (string, error)
	ParseToken(token string) (string, error)
}

// Cache описывает методы для кеширования сессий.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// UserService реализует регистрацию пользователей и проверку сессий.
type UserService struct {
	repo       Repository
	tokens     TokenMaker
	cache      Cache
	sessionTTL time.Duration
	log        *slog.Logger
	now        func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo Repository, tokens TokenMaker, cache Cache, sessionTTL time.Duration, log *slog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		tokens:     tokens,
		cache:      cache,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// Register создаёт пользователя и привязывает его к сессии.
// Если token подписан корректно и сессия свободна, она переиспользуется и
// возвращаемый токен пуст. Иначе выпускается новая сессия и её токен.
func (s *UserService) Register(ctx context.Context, token string, req models.DummyUser) (*models.User, string, error) {
	const op = "services.user.Register"

	sessionID, newToken, err := s.sessionForRegistration(ctx, token)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Age:       req.Age,
		SessionID: sessionID,
		CreatedAt: s.now().UTC(),
	}
	if _, err = s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("id", user.ID))

	s.cacheSession(ctx, sessionID, user.ID)
	return &user, newToken, nil
}

func (s *UserService) sessionForRegistration(ctx context.Context, token string) (string, string, error) {
	const op = "services.user.sessionForRegistration"

	if token != "" {
		sessionID, err := s.tokens.ParseToken(token)
		if err == nil {
			_, err = s.repo.GetUserBySession(ctx, sessionID)
			switch {
			case err == nil:
				return "", "", ErrSessionTaken
			case errors.Is(err, storage.ErrUserNotFound):
				return sessionID, "", nil
			default:
				return "", "", fmt.Errorf("%s: %w", op, err)
			}
		}
		s.log.Debug("ignoring invalid session token", sl.Err(err))
	}

	sessionID := uuid.NewString()
	newToken, err := s.tokens.GenerateToken(sessionID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return sessionID, newToken, nil
}

// Profile возвращает пользователя по ID.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "services.user.Profile"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ResolveSession возвращает ID пользователя, которому принадлежит токен сессии.
func (s *UserService) ResolveSession(ctx context.Context, token string) (string, error) {
	const op = "services.user.ResolveSession"

	if token == "" {
		return "", ErrInvalidSession
	}
	sessionID, err := s.tokens.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	key := cache.SessionKey(sessionID)
	var userID string
	found, err := s.cache.Get(ctx, key, &userID)
	if err != nil {
		s.log.Warn("failed to read session from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return userID, nil
	}

	user, err := s.repo.GetUserBySession(ctx, sessionID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return "", ErrInvalidSession
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.cacheSession(ctx, sessionID, user.ID)
	return user.ID, nil
}

func (s *UserService) cacheSession(ctx context.Context, sessionID, userID string) {
	key := cache.SessionKey(sessionID)
	if err := s.cache.Set(ctx, key, userID, s.sessionTTL); err != nil {
		s.log.Warn("failed to cache session", slog.String("key", key), sl.Err(err))
	}
}
