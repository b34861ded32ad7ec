package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE username = $1)`
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, username); err != nil {
		return core.NewTransientError(err, "checking username uniqueness")
	}
	if exists && !usernameExcluded(username, excludedUsers) {
		return user.ErrUsernameExists
	}

	query = `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1)`
	if err := repo.db.GetContext(ctx, &exists, query, email); err != nil {
		return core.NewTransientError(err, "checking email uniqueness")
	}
	if exists && !emailExcluded(email, excludedUsers) {
		return user.ErrEmailExists
	}
	return nil
}

func usernameExcluded(username string, excluded []user.User) bool {
	for _, usr := range excluded {
		if usr.Username == username {
			return true
		}
	}
	return false
}

func emailExcluded(email string, excluded []user.User) bool {
	for _, usr := range excluded {
		if usr.Email == email {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	query := `
		INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, '0001-01-01T00:00:00Z'::timestamptz))`
	_, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, core.NewTransientError(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var query string
	var args []interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		query = `SELECT * FROM "user" WHERE id = $1`
		args = []interface{}{filter.ID}
	case filter.Username != "":
		query = `SELECT * FROM "user" WHERE username = $1`
		args = []interface{}{filter.Username}
	case filter.Email != "":
		query = `SELECT * FROM "user" WHERE email = $1`
		args = []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		query = `SELECT * FROM "user" WHERE username = $1 OR email = $1`
		args = []interface{}{filter.UsernameOrEmail}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.unpack(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	query := `SELECT * FROM "user" WHERE true`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			query += ` AND (name ILIKE ` + p + ` OR username ILIKE ` + p + ` OR email ILIKE ` + p + `)`
		}
		if len(filter.Roles) > 0 {
			query += ` AND (false`
			for _, role := range filter.Roles {
				query += ` OR EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ` + arg(role+"%") + `)`
			}
			query += `)`
		}
		if filter.IsActive != nil {
			query += ` AND is_active = ` + arg(*filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			query += ` AND created_at >= ` + arg(filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			query += ` AND created_at <= ` + arg(filter.CreatedTo.UTC())
		}
	}
	query += ` ORDER BY created_at DESC`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.NewTransientError(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unpack())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	query := `
		UPDATE "user" SET
			name          = COALESCE(NULLIF($2, ''), name),
			username      = COALESCE(NULLIF($3, ''), username),
			email         = COALESCE(NULLIF($4, ''), email),
			roles         = COALESCE($5, roles),
			password_hash = COALESCE($6, password_hash),
			is_active     = COALESCE($7, is_active),
			updated_at    = $8,
			last_login    = COALESCE(NULLIF($9, '0001-01-01T00:00:00Z'::timestamptz), last_login)
		WHERE id = $1`

	var roles interface{}
	if usr.Roles != nil {
		roles = pq.StringArray(usr.Roles)
	}
	var pwdHash interface{}
	if usr.PasswordHash != nil {
		pwdHash = usr.PasswordHash
	}
	res, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, roles, pwdHash, isActive, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, core.NewTransientError(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}
