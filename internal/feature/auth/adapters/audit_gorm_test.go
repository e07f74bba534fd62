package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_backend/internal/feature/auth/domain/entity"
)

func TestAuditGorm_Record(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditGorm(db)

	log := &entity.AuditLog{
		UserID:        1,
		Timestamp:     time.Now().UTC(),
		IPAddress:     "2001:db8::1",
		WasSuccessful: false,
	}

	err := repo.Record(context.Background(), log)

	require.NoError(t, err, "failed to record audit row")
	assert.NotZero(t, log.ID, "ID is not set")
}

func TestAuditGorm_RecentByUser(t *testing.T) {
	t.Run("newest first with bounded count", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAuditGorm(db)

		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 5; i++ {
			err := repo.Record(context.Background(), &entity.AuditLog{
				UserID:        1,
				Timestamp:     base.Add(time.Duration(i) * time.Minute),
				WasSuccessful: i%2 == 0,
			})
			require.NoError(t, err)
		}
		// A different user's rows must not leak in
		err := repo.Record(context.Background(), &entity.AuditLog{
			UserID:    2,
			Timestamp: base.Add(time.Hour),
		})
		require.NoError(t, err)

		logs, err := repo.RecentByUser(context.Background(), 1, 3)

		require.NoError(t, err)
		require.Len(t, logs, 3)
		for _, l := range logs {
			assert.Equal(t, uint(1), l.UserID)
		}
		assert.True(t, logs[0].Timestamp.After(logs[1].Timestamp), "expected newest first")
		assert.True(t, logs[1].Timestamp.After(logs[2].Timestamp), "expected newest first")
	})

	t.Run("no rows", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAuditGorm(db)

		logs, err := repo.RecentByUser(context.Background(), 99, 10)

		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("re-query returns the same ordering", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAuditGorm(db)

		ts := time.Now().UTC()
		for i := 0; i < 3; i++ {
			// Identical timestamps fall back to ID ordering
			require.NoError(t, repo.Record(context.Background(), &entity.AuditLog{UserID: 1, Timestamp: ts}))
		}

		first, err := repo.RecentByUser(context.Background(), 1, 10)
		require.NoError(t, err)
		second, err := repo.RecentByUser(context.Background(), 1, 10)
		require.NoError(t, err)

		require.Len(t, first, 3)
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID, "ordering must be stable across queries")
		}
		assert.Greater(t, first[0].ID, first[1].ID)
	})
}
