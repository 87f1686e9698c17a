package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/promptpix/internal/domain"
	"github.com/basel-ax/promptpix/internal/repository"
	"github.com/basel-ax/promptpix/internal/testutil"
)

func TestPostgresImageRepository(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	ctx := context.Background()
	newRepo := func(t *testing.T) *repository.PostgresImageRepository {
		t.Cleanup(func() { testDB.Truncate(t) })
		return repository.NewPostgresImageRepository(testDB.DB)
	}

	t.Run("AppendThenRecent", func(t *testing.T) {
		repo := newRepo(t)

		id, err := repo.Append(ctx, "a red fox in snow", "https://cdn.example.com/fox.jpg", 4.25)
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		records, err := repo.Recent(ctx, domain.MaxHistory)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, id, records[0].ID)
		assert.Equal(t, "a red fox in snow", records[0].Prompt)
		assert.Equal(t, "https://cdn.example.com/fox.jpg", records[0].ImageURL)
		assert.InDelta(t, 4.25, records[0].GenerationTime, 1e-9)
		assert.False(t, records[0].CreatedAt.IsZero())
	})

	t.Run("RecentIsNewestFirstAndCapped", func(t *testing.T) {
		repo := newRepo(t)

		for i := 0; i < 55; i++ {
			_, err := repo.Append(ctx, fmt.Sprintf("prompt %d", i), fmt.Sprintf("https://cdn.example.com/%d.jpg", i), 1)
			require.NoError(t, err)
		}

		records, err := repo.Recent(ctx, domain.MaxHistory)
		require.NoError(t, err)
		require.Len(t, records, domain.MaxHistory)
		assert.Equal(t, "prompt 54", records[0].Prompt)
		for i := 1; i < len(records); i++ {
			assert.False(t, records[i].CreatedAt.After(records[i-1].CreatedAt), "records must be ordered by created_at desc")
		}

		few, err := repo.Recent(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, few, 3)
		assert.Equal(t, records[:3], few)

		oversized, err := repo.Recent(ctx, 500)
		require.NoError(t, err)
		assert.Len(t, oversized, domain.MaxHistory)

		for _, limit := range []int{0, -1} {
			none, err := repo.Recent(ctx, limit)
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none, "limit %d", limit)
		}
	})

	t.Run("RecentIsIdempotent", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 3; i++ {
			_, err := repo.Append(ctx, "p", fmt.Sprintf("https://cdn.example.com/%d.jpg", i), 0)
			require.NoError(t, err)
		}

		first, err := repo.Recent(ctx, domain.MaxHistory)
		require.NoError(t, err)
		second, err := repo.Recent(ctx, domain.MaxHistory)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		repo := newRepo(t)
		records, err := repo.Recent(ctx, domain.MaxHistory)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("AppendRejectsNegativeTime", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Append(ctx, "p", "https://cdn.example.com/x.jpg", -1)
		var persistErr *domain.PersistenceError
		require.True(t, errors.As(err, &persistErr))
		assert.Equal(t, "append", persistErr.Op)
	})

	t.Run("ImageURLs", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Append(ctx, "p", "https://cdn.example.com/1.jpg", 1)
		require.NoError(t, err)
		_, err = repo.Append(ctx, "p", "https://cdn.example.com/2.jpg", 1)
		require.NoError(t, err)

		urls, err := repo.ImageURLs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, urls)
	})
}
