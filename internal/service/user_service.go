package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/repository"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FetchPage(ctx context.Context, q repository.UserPageQuery) ([]models.User, int, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	SoftDelete(ctx context.Context, id string) error
	BulkSoftDelete(ctx context.Context, ids []string, check func([]models.User) error) error
	SeedUsers(ctx context.Context, users []models.User) (int64, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// UserServiceConfig tunes list behaviour.
type UserServiceConfig struct {
	MaxPageSize int
	CacheTTL    time.Duration
}

// Actor identifies who performs a mutation.
type Actor struct {
	Viewer    usertable.Viewer
	IP        string
	UserAgent string
}

// UserService implements the users list and the admin mutations.
type UserService struct {
	repo      userRepository
	cache     listCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       UserServiceConfig
}

// NewUserService constructs a UserService. cache may be nil.
func NewUserService(repo userRepository, cache listCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &UserService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// List returns one page of users matching the request and whether it was served from cache.
func (s *UserService) List(ctx context.Context, req dto.ListUsersRequest) (*dto.ListUsersResponse, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid list request")
	}

	state := req.State()
	state.Search = strings.TrimSpace(state.Search)
	if state.Pagination.PageSize > s.cfg.MaxPageSize {
		state.Pagination.PageSize = s.cfg.MaxPageSize
	}
	if len(state.Sorting) == 0 {
		state.Sorting = usertable.DefaultSort
	}
	for _, sort := range state.Sorting {
		if _, ok := repository.UserSortColumns[sort.ID]; !ok {
			return nil, false, appErrors.Clone(appErrors.ErrInvalidSortField, "unsupported sort field: "+sort.ID)
		}
	}

	key := table.QueryKey(usertable.KeyPrefix, state)
	if s.cache != nil {
		if req.Refresh {
			if err := s.cache.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to invalidate users page", zap.String("key", key), zap.Error(err))
			}
		} else {
			var cached dto.ListUsersResponse
			if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
				return &cached, true, nil
			}
		}
	}

	start := time.Now()
	users, total, err := s.repo.FetchPage(ctx, repository.UserPageQuery{
		Offset:  state.Offset(),
		Limit:   state.Pagination.PageSize,
		Sorting: state.Sorting,
		Search:  state.Search,
	})
	s.metrics.ObserveDBQuery("users_fetch_page", time.Since(start))
	if err != nil {
		return nil, false, mapListError(err)
	}

	resp := &dto.ListUsersResponse{
		Rows:       models.UserInfos(users),
		RowCount:   total,
		Pagination: state.Pagination,
		Sorting:    state.Sorting,
		Search:     state.Search,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache users page", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, false, nil
}

func mapListError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUnknownSortField):
		return appErrors.Wrap(err, appErrors.ErrInvalidSortField.Code, appErrors.ErrInvalidSortField.Status, appErrors.ErrInvalidSortField.Message)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "request cancelled")
	default:
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list users")
	}
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserInfo, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	info := user.Info()
	return &info, nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	if err := s.validator.Var(id, "required,uuid"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch user")
	}
	return user, nil
}

// Update changes name, role and status of a user the actor may modify.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateUserRequest) (*models.UserInfo, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !usertable.CanModify(actor.Viewer, current.Info()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not allowed to modify this user")
	}

	updated, err := s.repo.Update(ctx, id, models.UserUpdate{Name: req.Name, Role: req.Role, IsActive: *req.IsActive})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update user")
	}

	s.audit(ctx, actor, models.AuditActionUserUpdate, id, current.Info(), updated.Info())
	s.invalidateList(ctx)
	info := updated.Info()
	return &info, nil
}

// Delete soft deletes a user the actor may modify.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !usertable.CanModify(actor.Viewer, current.Info()) {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not allowed to delete this user")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete user")
	}
	s.audit(ctx, actor, models.AuditActionUserDelete, id, current.Info(), nil)
	s.invalidateList(ctx)
	return nil
}

// BulkDelete soft deletes every listed user or none of them.
func (s *UserService) BulkDelete(ctx context.Context, actor Actor, req dto.BulkDeleteRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	ids := uniqueIDs(req.IDs)

	var locked []models.User
	err := s.repo.BulkSoftDelete(ctx, ids, func(users []models.User) error {
		for _, u := range users {
			if !usertable.CanModify(actor.Viewer, u.Info()) {
				return appErrors.Clone(appErrors.ErrForbidden, "you are not allowed to delete "+u.Email)
			}
		}
		locked = users
		return nil
	})
	if err != nil {
		switch {
		case appErrors.Is(err, appErrors.ErrForbidden):
			return 0, err
		case errors.Is(err, sql.ErrNoRows):
			return 0, appErrors.Clone(appErrors.ErrNotFound, "one or more users not found")
		default:
			return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete users")
		}
	}

	for _, u := range locked {
		s.audit(ctx, actor, models.AuditActionUserDelete, u.ID, u.Info(), nil)
	}
	s.invalidateList(ctx)
	return len(ids), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SeedUsers inserts the canonical demo accounts that do not exist yet.
func (s *UserService) SeedUsers(ctx context.Context, password string) (int64, error) {
	if password == "" {
		password = "password123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash seed password")
	}
	users := SeedAccounts()
	for i := range users {
		users[i].Password = string(hash)
	}
	created, err := s.repo.SeedUsers(ctx, users)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to seed users")
	}
	if created > 0 {
		s.invalidateList(ctx)
	}
	s.logger.Info("users seeded", zap.Int64("created", created))
	return created, nil
}

// SeedAccounts lists the demo accounts without passwords.
func SeedAccounts() []models.User {
	return []models.User{
		{Name: "Super Admin", Email: "superadmin@example.com", Role: models.RoleSuperAdmin, IsActive: true},
		{Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true},
		{Name: "John Doe", Email: "john.doe@example.com", Role: models.RoleUser, IsActive: true},
		{Name: "Jane Smith", Email: "jane.smith@example.com", Role: models.RoleUser, IsActive: true},
		{Name: "Inactive User", Email: "inactive@example.com", Role: models.RoleUser, IsActive: false},
	}
}

func (s *UserService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, table.KeyPrefix(usertable.KeyPrefix)); err != nil {
		s.logger.Warn("failed to invalidate users list cache", zap.Error(err))
	}
}

func (s *UserService) audit(ctx context.Context, actor Actor, action, resourceID string, oldValue interface{}, newValue interface{}) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   models.AuditResourceUser,
		ResourceID: &resourceID,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.Viewer.ID != "" {
		actorID := actor.Viewer.ID
		entry.UserID = &actorID
	}
	if oldValue != nil {
		entry.OldValues, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		entry.NewValues, _ = json.Marshal(newValue)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
