package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"membersite/internal/domain"
)

const userCols = `id,email,name,password_hash,role,created_at`

// UserRepo is the credential store. Every lookup is an exact match on a bound
// parameter; callers never pass query fragments.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// FindByEmail returns every record whose email equals email. More than one
// match is possible because email is not unique.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) ([]domain.User, error) {
	var us []domain.User
	q := r.DB.Rebind(`SELECT ` + userCols + ` FROM users WHERE email=?`)
	if err := r.DB.SelectContext(ctx, &us, q, email); err != nil {
		return nil, oops.Code("STORE").With("op", "find_by_email").Wrap(err)
	}
	return us, nil
}

func (r *UserRepo) FindByName(ctx context.Context, name string) ([]domain.User, error) {
	var us []domain.User
	q := r.DB.Rebind(`SELECT ` + userCols + ` FROM users WHERE name=?`)
	if err := r.DB.SelectContext(ctx, &us, q, name); err != nil {
		return nil, oops.Code("STORE").With("op", "find_by_name").Wrap(err)
	}
	return us, nil
}

// Insert stores u, filling ID and CreatedAt when unset.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UTC().UnixNano()
	}
	u.Role = u.Role.Normalize()
	q := r.DB.Rebind(`INSERT INTO users(` + userCols + `) VALUES(?,?,?,?,?,?)`)
	if _, err := r.DB.ExecContext(ctx, q, u.ID, u.Email, u.Name, u.Hash, string(u.Role), u.CreatedAt); err != nil {
		return oops.Code("STORE").With("op", "insert_user").Wrap(err)
	}
	return nil
}

// ListAll returns the admin projection of every user in signup order.
func (r *UserRepo) ListAll(ctx context.Context) ([]domain.UserSummary, error) {
	var out []domain.UserSummary
	if err := r.DB.SelectContext(ctx, &out, `SELECT name,role FROM users ORDER BY created_at,name`); err != nil {
		return nil, oops.Code("STORE").With("op", "list_users").Wrap(err)
	}
	for i := range out {
		out[i].Role = out[i].Role.Normalize()
	}
	return out, nil
}

// SetRole changes the role of every record with the given email and reports
// how many were updated.
func (r *UserRepo) SetRole(ctx context.Context, email string, role domain.Role) (int64, error) {
	q := r.DB.Rebind(`UPDATE users SET role=? WHERE email=?`)
	res, err := r.DB.ExecContext(ctx, q, string(role), email)
	if err != nil {
		return 0, oops.Code("STORE").With("op", "set_role").Wrap(err)
	}
	return res.RowsAffected()
}
