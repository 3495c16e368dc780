package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/repository"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo, *SessionService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockAuthRepo{users: map[string]*models.User{
		adminID: {ID: adminID, Name: "Admin User", Email: "admin@example.com", Password: string(hash), Role: models.RoleAdmin, IsActive: true},
		janeID:  {ID: janeID, Name: "Inactive User", Email: "inactive@example.com", Password: string(hash), Role: models.RoleUser, IsActive: false},
	}}
	sessions := NewSessionService(repository.NewSessionMemoryStore(16, 0), SessionConfig{Secret: "test-secret", TTL: time.Hour}, nil, zap.NewNop())
	svc := NewAuthService(repo, sessions, validator.New(), nil, zap.NewNop())
	return svc, repo, sessions
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, repo, sessions := newAuthFixture(t)

	result, token, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, MsgLoginSuccess, result.Message)
	require.NotNil(t, result.Data)
	assert.Equal(t, adminID, result.Data.ID)
	require.NotEmpty(t, token)

	session, err := sessions.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, adminID, session.UserID)
	assert.Equal(t, models.RoleAdmin, session.Role)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		req      models.LoginRequest
		expected string
	}{
		{name: "unknown email", req: models.LoginRequest{Email: "nobody@example.com", Password: "password123"}, expected: MsgAccountNotFound},
		{name: "wrong password", req: models.LoginRequest{Email: "admin@example.com", Password: "password124"}, expected: MsgIncorrectPassword},
		{name: "inactive", req: models.LoginRequest{Email: "inactive@example.com", Password: "password123"}, expected: MsgAccountInactive},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newAuthFixture(t)
			result, token, err := svc.Login(context.Background(), tc.req)
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, tc.expected, result.Message)
			assert.Nil(t, result.Data)
			assert.Empty(t, token)
			assert.Empty(t, repo.auditLogs)
		})
	}
}

func TestAuthServiceLoginValidationMessages(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "password123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, MsgInvalidEmail, appErrors.FromError(err).Message)

	_, _, err = svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, MsgPasswordTooShort, appErrors.FromError(err).Message)
}

func TestAuthServiceLogout(t *testing.T) {
	svc, repo, sessions := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Logout(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgNotAuthenticated, result.Message)

	_, token, err := svc.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)

	result, err = svc.Logout(ctx, token, "10.0.0.1", "test")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, MsgLogoutSuccess, result.Message)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[len(repo.auditLogs)-1].Action)

	_, err = sessions.Resolve(ctx, token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	result, err = svc.Logout(ctx, token, "", "")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestAuthServiceCurrentUserRereadsStore(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.CurrentUser(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, token, err := svc.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)

	session, user, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "Admin User", user.Name)

	repo.users[adminID].Name = "Renamed Admin"
	_, user, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Admin", user.Name)

	repo.users[adminID].IsActive = false
	session, user, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)
}

func TestAuthServiceAuthenticateRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	session, user, err := svc.Authenticate(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, user)
}
