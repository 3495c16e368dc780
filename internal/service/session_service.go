package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/repository"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

// SessionStore persists server-side sessions.
type SessionStore interface {
	Save(ctx context.Context, session models.Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionConfig configures session issuing.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// SessionService issues signed session cookies backed by a store record.
type SessionService struct {
	store   SessionStore
	config  SessionConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store SessionStore, config SessionConfig, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 7 * 24 * time.Hour
	}
	return &SessionService{store: store, config: config, metrics: metrics, logger: logger, now: time.Now}
}

// TTL is the lifetime of new sessions.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// Create stores a session for user and returns the signed cookie value.
func (s *SessionService) Create(ctx context.Context, user models.User) (string, *models.Session, error) {
	now := s.now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.TTL),
	}

	claims := &models.SessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}

	if err := s.store.Save(ctx, session, s.config.TTL); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to persist session")
	}
	s.metrics.RecordSessionEvent("created")
	return token, &session, nil
}

// Resolve verifies the cookie value and loads its session.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "User not authenticated")
	}
	claims, err := s.parse(token)
	if err != nil {
		s.metrics.RecordSessionEvent("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "User not authenticated")
	}

	session, err := s.store.Load(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "User not authenticated")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load session")
	}
	if session.UserID != claims.Subject || session.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "User not authenticated")
	}
	return session, nil
}

// Destroy deletes the session behind token. Unknown sessions are not an error.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, claims.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete session")
	}
	s.metrics.RecordSessionEvent("destroyed")
	return nil
}

func (s *SessionService) parse(token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
