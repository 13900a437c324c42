package repos

import (
	"context"
	"fmt"

	"bookmood/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and fills in its generated id.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt == "" {
		u.CreatedAt = Now()
	}
	err := r.DB.GetContext(ctx, &u.ID, r.DB.Rebind(`
		INSERT INTO users(name,email,password_hash,created_at)
		VALUES(?,?,?,?)
		RETURNING id`), u.Name, u.Email, u.Hash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,email,name,password_hash,created_at FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,email,name,password_hash,created_at FROM users WHERE id=?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

// SessionRow is a bound session joined to its user.
type SessionRow struct {
	domain.User
	ExpiresAt string `db:"expires_at"`
}

func (r *UserRepo) BindSession(ctx context.Context, sid string, userID int64, expiresAt string) error {
	now := Now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`INSERT INTO sessions(id,user_id,created_at,expires_at,last_seen)
                          VALUES(?,?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,expires_at=excluded.expires_at,last_seen=excluded.last_seen`),
		sid, userID, now, expiresAt, now)
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

// SessionUser resolves an unexpired, bound session.
func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*SessionRow, error) {
	var row SessionRow
	err := r.DB.GetContext(ctx, &row, r.DB.Rebind(`
      SELECT u.id,u.email,u.name,u.password_hash,u.created_at,s.expires_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=? AND s.expires_at > ?`), sid, Now())
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`), Now(), sid)
	return err
}
