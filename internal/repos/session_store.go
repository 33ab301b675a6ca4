package repos

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	applog "membersite/internal/log"
)

// SessionStore persists fiber sessions in the sessions table so they survive
// restarts. It satisfies fiber.Storage.
type SessionStore struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{DB: db, Now: time.Now}
}

func (s *SessionStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var row struct {
		Data      string `db:"data"`
		ExpiresAt int64  `db:"expires_at"`
	}
	q := s.DB.Rebind(`SELECT data,expires_at FROM sessions WHERE id=?`)
	err := s.DB.GetContext(context.Background(), &row, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt != 0 && s.Now().Unix() > row.ExpiresAt {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(row.Data)
}

func (s *SessionStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var expiresAt int64
	if exp > 0 {
		expiresAt = s.Now().Add(exp).Unix()
	}
	q := s.DB.Rebind(`INSERT INTO sessions(id,data,expires_at) VALUES(?,?,?)
                      ON CONFLICT(id) DO UPDATE SET data=excluded.data,expires_at=excluded.expires_at`)
	_, err := s.DB.ExecContext(context.Background(), q, key, base64.StdEncoding.EncodeToString(val), expiresAt)
	return err
}

func (s *SessionStore) Delete(key string) error {
	if key == "" {
		return nil
	}
	_, err := s.DB.ExecContext(context.Background(), s.DB.Rebind(`DELETE FROM sessions WHERE id=?`), key)
	return err
}

func (s *SessionStore) Reset() error {
	_, err := s.DB.ExecContext(context.Background(), `DELETE FROM sessions`)
	return err
}

// Close is a no-op; the DB handle is owned by the caller.
func (s *SessionStore) Close() error { return nil }

// GC removes expired rows and returns how many were deleted.
func (s *SessionStore) GC(ctx context.Context) (int64, error) {
	q := s.DB.Rebind(`DELETE FROM sessions WHERE expires_at<>0 AND expires_at<?`)
	res, err := s.DB.ExecContext(ctx, q, s.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunGC calls GC every interval until ctx is done.
func (s *SessionStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.GC(ctx)
			if err != nil {
				applog.L().Warn("session.gc.fail", zap.Error(err))
				continue
			}
			if n > 0 {
				applog.L().Info("session.gc", zap.Int64("deleted", n))
			}
		}
	}
}
