package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membersite/internal/config"
	"membersite/internal/domain"
	"membersite/internal/repos"
	"membersite/internal/secure"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(context.Background(), config.StoreConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := memdb(t)
	require.NoError(t, repos.Migrate(context.Background(), db))
}

func TestUserRepoExactMatch(t *testing.T) {
	ctx := context.Background()
	r := repos.NewUserRepo(memdb(t))

	u := &domain.User{Email: "a@b.com", Name: "Ann", Hash: "$2a$hash"}
	require.NoError(t, r.Insert(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, domain.RoleStandard, u.Role)

	got, err := r.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got[0].Name)
	assert.Equal(t, domain.RoleStandard, got[0].Role)

	// no case folding, no pattern matching
	for _, probe := range []string{"A@B.COM", "%", "a@b.com' OR '1'='1"} {
		got, err = r.FindByEmail(ctx, probe)
		require.NoError(t, err)
		assert.Empty(t, got, probe)
	}

	byName, err := r.FindByName(ctx, "Ann")
	require.NoError(t, err)
	assert.Len(t, byName, 1)
}

func TestUserRepoAllowsDuplicateEmails(t *testing.T) {
	ctx := context.Background()
	r := repos.NewUserRepo(memdb(t))
	require.NoError(t, r.Insert(ctx, &domain.User{Email: "dup@x.com", Name: "One", Hash: "h"}))
	require.NoError(t, r.Insert(ctx, &domain.User{Email: "dup@x.com", Name: "Two", Hash: "h"}))

	got, err := r.FindByEmail(ctx, "dup@x.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUserRepoListAndSetRole(t *testing.T) {
	ctx := context.Background()
	r := repos.NewUserRepo(memdb(t))
	require.NoError(t, r.Insert(ctx, &domain.User{Email: "a@b.com", Name: "Ann", Hash: "h", CreatedAt: 1}))
	require.NoError(t, r.Insert(ctx, &domain.User{Email: "c@d.com", Name: "Cid", Hash: "h", CreatedAt: 2}))

	n, err := r.SetRole(ctx, "c@d.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserSummary{
		{Name: "Ann", Role: domain.RoleStandard},
		{Name: "Cid", Role: domain.RoleAdmin},
	}, list)
}

func TestSessionStoreLifecycle(t *testing.T) {
	db := memdb(t)
	s := repos.NewSessionStore(db)
	now := time.Unix(1_700_000_000, 0)
	s.Now = func() time.Time { return now }

	b, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, b)

	require.NoError(t, s.Set("sid-1", []byte("payload"), time.Hour))
	b, err = s.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), b)

	require.NoError(t, s.Set("sid-1", []byte("updated"), time.Hour))
	b, err = s.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), b)

	// past expiry the row is still there but reads as missing
	now = now.Add(2 * time.Hour)
	b, err = s.Get("sid-1")
	require.NoError(t, err)
	assert.Nil(t, b)

	n, err := s.GC(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Set("sid-2", []byte("x"), 0))
	require.NoError(t, s.Delete("sid-2"))
	b, err = s.Get("sid-2")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestSessionStoreSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/sessions.db"
	cfg := config.StoreConfig{Driver: "sqlite", DSN: path}

	db, err := repos.OpenDB(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, repos.NewSessionStore(db).Set("sid", []byte("kept"), time.Hour))
	require.NoError(t, db.Close())

	db, err = repos.OpenDB(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()
	b, err := repos.NewSessionStore(db).Get("sid")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), b)
}

func TestSealedStorageEncryptsAtRest(t *testing.T) {
	db := memdb(t)
	raw := repos.NewSessionStore(db)
	sealer, err := secure.NewSealer("store-secret")
	require.NoError(t, err)
	sealed := &repos.SealedStorage{Storage: raw, Sealer: sealer}

	require.NoError(t, sealed.Set("sid", []byte("name=Ann"), time.Hour))

	onDisk, err := raw.Get("sid")
	require.NoError(t, err)
	assert.NotContains(t, string(onDisk), "Ann")

	plain, err := sealed.Get("sid")
	require.NoError(t, err)
	assert.Equal(t, []byte("name=Ann"), plain)

	other, err := secure.NewSealer("rotated")
	require.NoError(t, err)
	rotated := &repos.SealedStorage{Storage: raw, Sealer: other}
	plain, err = rotated.Get("sid")
	require.NoError(t, err)
	assert.Nil(t, plain)
}
