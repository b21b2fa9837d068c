package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/postsign"
	"github.com/sagarc03/postsign/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	if testCleanup != nil {
		testCleanup()
	}
	os.Exit(code)
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newSlip(key string, createdAt time.Time) postsign.Slip {
	return postsign.Slip{
		ID:        uuid.New(),
		Key:       key,
		Bucket:    "example-bucket",
		ExpiresAt: createdAt.Add(time.Minute),
		CreatedAt: createdAt,
	}
}

func TestDatabase_Lifecycle(t *testing.T) {
	pool, cleanup := getIsolatedTestDatabase(t)
	defer cleanup()
	defer pool.Close()

	ctx := context.Background()
	tables := postsign.Tables{Slips: "upload_slips"}

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))
	assert.Error(t, db.Validate(ctx), "validate before migrate")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
	require.NoError(t, db.Validate(ctx))

	require.NoError(t, postgres.DropTables(ctx, pool, tables))
	assert.Error(t, postgres.ValidateSchema(ctx, pool, tables))
}

func TestNewRepo_InvalidTables(t *testing.T) {
	_, err := postgres.NewRepo(nil, postsign.Tables{Slips: "Bad-Name"})
	assert.Error(t, err)
}

func TestRepo_RecordAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	slip := newSlip("uploads/a", baseTime.Add(123456*time.Microsecond))
	require.NoError(t, repo.Record(ctx, slip))

	got, err := repo.Get(ctx, slip.ID)
	require.NoError(t, err)

	assert.Equal(t, slip, got)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, postsign.ErrNotFound)

	err = repo.Record(ctx, newSlip("uploads/a", baseTime))
	assert.ErrorIs(t, err, postsign.ErrInvalidInput)
}

func TestRepo_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, repo.Record(ctx, newSlip(fmt.Sprintf("uploads/%d", i), baseTime.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.Record(ctx, newSlip("other/x", baseTime)))

	t.Run("prefix", func(t *testing.T) {
		result, err := repo.List(ctx, postsign.ListQuery{KeyPrefix: "other/", Limit: 10})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "other/x", result.Items[0].Key)
	})

	t.Run("pagination", func(t *testing.T) {
		var keys []string
		cursor := ""
		for {
			result, err := repo.List(ctx, postsign.ListQuery{KeyPrefix: "uploads/", Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			for _, s := range result.Items {
				keys = append(keys, s.Key)
			}
			if result.NextCursor == "" {
				break
			}
			cursor = result.NextCursor
		}
		assert.Equal(t, []string{"uploads/0", "uploads/1", "uploads/2", "uploads/3", "uploads/4"}, keys)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := repo.List(ctx, postsign.ListQuery{Limit: 10, Cursor: "not-valid-base64!!!"})
		assert.ErrorIs(t, err, postsign.ErrInvalidInput)
	})
}

func TestRepo_DeleteExpired(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := range 4 {
		require.NoError(t, repo.Record(ctx, newSlip(fmt.Sprintf("old/%d", i), baseTime)))
	}
	fresh := newSlip("new/0", baseTime.Add(time.Hour))
	require.NoError(t, repo.Record(ctx, fresh))

	cutoff := baseTime.Add(30 * time.Minute)

	n, err := repo.DeleteExpired(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.DeleteExpired(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
