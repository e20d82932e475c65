package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/testutil"
)

var (
	testDB    *testutil.TestDB
	testCache *testutil.TestCache
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testutil.SetupTestDB(ctx)
	if err != nil {
		panic("failed to setup test database: " + err.Error())
	}

	testCache, err = testutil.SetupTestCache(ctx)
	if err != nil {
		panic("failed to setup test cache: " + err.Error())
	}

	// Run tests
	code := m.Run()

	// Cleanup
	testCache.Teardown(ctx)
	testDB.Teardown(ctx)
	os.Exit(code)
}

func ptr[T any](v T) *T { return &v }

func TestPostgresRepository_Create(t *testing.T) {
	repo := NewPostgresRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("success - public link without expiration", func(t *testing.T) {
		testDB.Cleanup(ctx)

		link := &model.ShortLink{
			ShortCode:   "abc123",
			Destination: "https://example.com",
		}

		err := repo.Create(ctx, link)
		require.NoError(t, err)
		assert.False(t, link.CreatedAt.IsZero(), "expected created_at to be returned by the database")

		var count int
		testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM shortcodes WHERE short_code = $1", "abc123").Scan(&count)
		assert.Equal(t, 1, count)
	})

	t.Run("success - protected link with expiration", func(t *testing.T) {
		testDB.Cleanup(ctx)

		expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond)
		link := &model.ShortLink{
			ShortCode:      "def456",
			Destination:    "https://example.com/page",
			PasswordHash:   ptr("$2a$04$hashhashhashhashhashhu"),
			ExpirationDate: &expires,
		}

		require.NoError(t, repo.Create(ctx, link))

		var storedPassword *string
		var storedExpiry *time.Time
		err := testDB.Pool.QueryRow(ctx,
			"SELECT password, expiration_date FROM shortcodes WHERE short_code = $1", "def456",
		).Scan(&storedPassword, &storedExpiry)
		require.NoError(t, err)
		require.NotNil(t, storedPassword)
		assert.Equal(t, "$2a$04$hashhashhashhashhashhu", *storedPassword)
		require.NotNil(t, storedExpiry)
		assert.True(t, expires.Equal(*storedExpiry))
	})

	t.Run("error - duplicate short code", func(t *testing.T) {
		testDB.Cleanup(ctx)

		first := &model.ShortLink{ShortCode: "dup", Destination: "https://example.com/1"}
		require.NoError(t, repo.Create(ctx, first))

		second := &model.ShortLink{ShortCode: "dup", Destination: "https://example.com/2"}
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, ErrCodeConflict)

		got, err := repo.GetByCode(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/1", got.Destination, "first record must not be overwritten")
	})

	t.Run("concurrent creates with the same code - exactly one wins", func(t *testing.T) {
		testDB.Cleanup(ctx)

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = repo.Create(ctx, &model.ShortLink{ShortCode: "race", Destination: "https://example.com/race"})
			}(i)
		}
		wg.Wait()

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, ErrCodeConflict):
				conflicts++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, conflicts)
	})
}

func TestPostgresRepository_GetByCode(t *testing.T) {
	repo := NewPostgresRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("success - returns stored record", func(t *testing.T) {
		testDB.Cleanup(ctx)

		expires := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
		require.NoError(t, repo.Create(ctx, &model.ShortLink{
			ShortCode:      "getme",
			Destination:    "https://example.com/getme",
			ExpirationDate: &expires,
		}))

		link, err := repo.GetByCode(ctx, "getme")
		require.NoError(t, err)
		assert.Equal(t, "getme", link.ShortCode)
		assert.Equal(t, "https://example.com/getme", link.Destination)
		assert.Nil(t, link.PasswordHash)
		require.NotNil(t, link.ExpirationDate)
		assert.True(t, expires.Equal(*link.ExpirationDate))
		assert.False(t, link.CreatedAt.IsZero())
	})

	t.Run("error - unknown code", func(t *testing.T) {
		testDB.Cleanup(ctx)

		_, err := repo.GetByCode(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("exact match only", func(t *testing.T) {
		testDB.Cleanup(ctx)

		require.NoError(t, repo.Create(ctx, &model.ShortLink{ShortCode: "Case", Destination: "https://example.com"}))

		_, err := repo.GetByCode(ctx, "case")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresRepository_Exists(t *testing.T) {
	repo := NewPostgresRepository(testDB.Pool)
	ctx := context.Background()

	testDB.Cleanup(ctx)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, &model.ShortLink{
		ShortCode:      "taken",
		Destination:    "https://example.com",
		ExpirationDate: &expired,
	}))

	exists, err := repo.Exists(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, exists, "expired codes still occupy the namespace")

	exists, err = repo.Exists(ctx, "free")
	require.NoError(t, err)
	assert.False(t, exists)
}
