package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
)

const userColumns = "id, name, email, password, role, is_active, created_at, updated_at"

// ErrUnknownSortField is returned when a sort id has no column mapping.
var ErrUnknownSortField = errors.New("unknown sort field")

// UserSortColumns maps sortable ids to columns.
var UserSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"isActive":  "is_active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// UserPageQuery is one page request against the users table.
type UserPageQuery struct {
	Offset  int
	Limit   int
	Sorting []table.Sort
	Search  string
}

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FetchPage returns one window of users and the number of users matching the same filter.
func (r *UserRepository) FetchPage(ctx context.Context, q UserPageQuery) ([]models.User, int, error) {
	orderBy, err := userOrderBy(q.Sorting)
	if err != nil {
		return nil, 0, err
	}

	baseQuery := `FROM users WHERE 1=1`
	var args []interface{}
	if search := strings.TrimSpace(q.Search); search != "" {
		baseQuery += fmt.Sprintf(` AND (LOWER(name) LIKE $%d ESCAPE '\' OR LOWER(email) LIKE $%d ESCAPE '\')`, len(args)+1, len(args)+1)
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", userColumns, baseQuery, orderBy, limit, offset)
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

func userOrderBy(sorting []table.Sort) (string, error) {
	if len(sorting) == 0 {
		return "created_at DESC, id ASC", nil
	}
	clauses := make([]string, 0, len(sorting)+1)
	for _, s := range sorting {
		column, ok := UserSortColumns[s.ID]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownSortField, s.ID)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		clauses = append(clauses, column+" "+dir)
	}
	clauses = append(clauses, "id ASC")
	return strings.Join(clauses, ", "), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update writes the editable fields and returns the stored record.
func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	query := `UPDATE users SET name = $2, role = $3, is_active = $4, updated_at = $5 WHERE id = $1 RETURNING ` + userColumns
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id, upd.Name, upd.Role, upd.IsActive, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

// SoftDelete marks the user inactive.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkSoftDelete deactivates every id in one transaction. The rows are locked and passed to check
// first; any missing id or check failure rolls the whole batch back.
func (r *UserRepository) BulkSoftDelete(ctx context.Context, ids []string, check func([]models.User) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var users []models.User
	lockQuery := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	if err = tx.SelectContext(ctx, &users, lockQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	if len(users) != len(ids) {
		return sql.ErrNoRows
	}
	if check != nil {
		if err = check(users); err != nil {
			return err
		}
	}

	const updateQuery = `UPDATE users SET is_active = FALSE, updated_at = $2 WHERE id = ANY($1)`
	if _, err = tx.ExecContext(ctx, updateQuery, pq.Array(ids), time.Now().UTC()); err != nil {
		return fmt.Errorf("bulk delete users: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk delete: %w", err)
	}
	return nil
}

// SeedUsers inserts users whose email is not taken yet and reports how many were created.
func (r *UserRepository) SeedUsers(ctx context.Context, users []models.User) (created int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO users (id, name, email, password, role, is_active, created_at, updated_at) VALUES (:id, :name, :email, :password, :role, :is_active, :created_at, :updated_at) ON CONFLICT (email) DO NOTHING`
	now := time.Now().UTC()
	for i := range users {
		u := users[i]
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = u.CreatedAt
		res, execErr := tx.NamedExecContext(ctx, query, &u)
		if execErr != nil {
			err = fmt.Errorf("seed user %s: %w", u.Email, execErr)
			return 0, err
		}
		if n, affErr := res.RowsAffected(); affErr == nil {
			created += n
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return created, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
