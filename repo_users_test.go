package activation_test

import (
	"context"
	"database/sql"
	"testing"

	activation "github.com/goliatone/go-activation"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    image TEXT,
    password_hash TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupUsersRepo(t *testing.T) (activation.Users, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return activation.NewUsersRepository(bunDB), cleanup
}

func TestUsersInsertDefaults(t *testing.T) {
	repo, cleanup := setupUsersRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.Insert(ctx, &activation.User{
		Email:        "  New.User@Example.COM ",
		Name:         "New User",
		PasswordHash: "$2a$14$notarealhash",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.user@example.com", created.Email)
	assert.NotEqual(t, uuid.Nil, created.ID)

	// ids derive from the normalized email, so the same address always maps
	// to the same record id
	expected, err := hashid.NewUUID("new.user@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, created.ID)
}

func TestUsersInsertDuplicateEmail(t *testing.T) {
	repo, cleanup := setupUsersRepo(t)
	defer cleanup()

	ctx := context.Background()

	_, err := repo.Insert(ctx, &activation.User{
		Email: "taken@example.com",
		Name:  "First",
	})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, &activation.User{
		Email: "Taken@Example.com",
		Name:  "Second",
	})
	assert.Error(t, err)
}

func TestUsersFindByEmail(t *testing.T) {
	repo, cleanup := setupUsersRepo(t)
	defer cleanup()

	ctx := context.Background()

	seeded, err := repo.Insert(ctx, &activation.User{
		Email:        "user@example.com",
		Name:         "Test User",
		Image:        "https://example.com/avatar.png",
		PasswordHash: "$2a$14$notarealhash",
	})
	require.NoError(t, err)

	t.Run("full record includes the password hash", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "user@example.com", activation.FullRecord)
		require.NoError(t, err)

		assert.Equal(t, seeded.ID, found.ID)
		assert.Equal(t, "$2a$14$notarealhash", found.PasswordHash)
	})

	t.Run("modified record omits the password hash", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "user@example.com", activation.ModifiedRecord)
		require.NoError(t, err)

		assert.Equal(t, seeded.ID, found.ID)
		assert.Equal(t, "Test User", found.Name)
		assert.Empty(t, found.PasswordHash)
	})

	t.Run("lookup normalizes the email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  USER@Example.com ", activation.FullRecord)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, found.ID)
	})

	t.Run("unknown email is a record not found", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "missing@example.com", activation.FullRecord)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
