package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/incident-admin/internal/models"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

// Login and logout result messages.
const (
	MsgLoginSuccess      = "Login successful"
	MsgLogoutSuccess     = "Logout successful"
	MsgNotAuthenticated  = "User not authenticated"
	MsgAccountNotFound   = "Account not found, please check your email address."
	MsgIncorrectPassword = "Incorrect password, please check your password and try again."
	MsgAccountInactive   = "Account is inactive, please contact an administrator."
	MsgInvalidEmail      = "Email is not valid"
	MsgPasswordTooShort  = "Password must be at least 8 characters"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type sessionManager interface {
	Create(ctx context.Context, user models.User) (string, *models.Session, error)
	Resolve(ctx context.Context, token string) (*models.Session, error)
	Destroy(ctx context.Context, token string) error
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	sessions  sessionManager
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions sessionManager, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, metrics: metrics, logger: logger}
}

// Login checks credentials and opens a session. A rejected login is a result with Success false,
// not an error; the returned token is empty in that case.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, string, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordLogin(LoginOutcomeInvalid)
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, loginValidationMessage(err))
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLogin(LoginOutcomeUnknownEmail)
			return &models.AuthResult{Success: false, Message: MsgAccountNotFound}, "", nil
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(LoginOutcomeWrongPassword)
		return &models.AuthResult{Success: false, Message: MsgIncorrectPassword}, "", nil
	}

	if !user.IsActive {
		s.metrics.RecordLogin(LoginOutcomeInactive)
		return &models.AuthResult{Success: false, Message: MsgAccountInactive}, "", nil
	}

	token, _, err := s.sessions.Create(ctx, *user)
	if err != nil {
		return nil, "", err
	}

	s.audit(ctx, user.ID, models.AuditActionLogin, req.IP, req.UserAgent)
	s.metrics.RecordLogin(LoginOutcomeSuccess)
	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	info := user.Info()
	return &models.AuthResult{Success: true, Message: MsgLoginSuccess, Data: &info}, token, nil
}

// Logout ends the session behind token. Without a live session it reports failure.
func (s *AuthService) Logout(ctx context.Context, token, ip, userAgent string) (*models.AuthResult, error) {
	session, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrUnauthorized) {
			return &models.AuthResult{Success: false, Message: MsgNotAuthenticated}, nil
		}
		return nil, err
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return nil, err
	}
	s.audit(ctx, session.UserID, models.AuditActionLogout, ip, userAgent)
	return &models.AuthResult{Success: true, Message: MsgLogoutSuccess}, nil
}

// CurrentUser re-reads the session's user. A missing session, a deleted user or a deactivated
// user all yield nil without error.
func (s *AuthService) CurrentUser(ctx context.Context, session *models.Session) (*models.UserInfo, error) {
	if session == nil {
		return nil, nil
	}
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch user")
	}
	if !user.IsActive {
		return nil, nil
	}
	info := user.Info()
	return &info, nil
}

// Authenticate resolves token to its session and current user. Any failure yields nils.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, *models.UserInfo, error) {
	if token == "" {
		return nil, nil, nil
	}
	session, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrUnauthorized) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	user, err := s.CurrentUser(ctx, session)
	if err != nil || user == nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) audit(ctx context.Context, userID, action, ip, userAgent string) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

func loginValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return MsgInvalidEmail
		case "Password":
			return MsgPasswordTooShort
		}
	}
	return "invalid login payload"
}
