package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/devtail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/devtail-backend/pkg/db/models"
	"github.com/angelmondragon/devtail-backend/pkg/enums"
)

func seedAlerts(t *testing.T, repo Repository, userID uint64, n int) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		alert := &models.Alert{UserID: userID, Category: enums.AlertCategoryChat, Content: "new message"}
		require.NoError(t, repo.Create(context.Background(), alert))
		ids = append(ids, alert.ID)
	}
	return ids
}

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	ids := seedAlerts(t, repo, 1, 5)
	seedAlerts(t, repo, 2, 2)

	page, next, err := repo.List(ctx, listAlertsParams{UserID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, ids[4], page[0].ID)
	require.Equal(t, ids[3], page[1].ID)
	require.NotNil(t, next)

	page, next, err = repo.List(ctx, listAlertsParams{UserID: 1, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, ids[2], page[0].ID)
	require.Equal(t, ids[1], page[1].ID)

	page, next, err = repo.List(ctx, listAlertsParams{UserID: 1, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, ids[0], page[0].ID)
	require.Nil(t, next)
}

func TestRepositoryMarkReadScopedToOwner(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	ids := seedAlerts(t, repo, 1, 3)

	res, err := repo.MarkRead(ctx, 2, ids[0])
	require.NoError(t, err)
	require.False(t, res.Found)

	res, err = repo.MarkRead(ctx, 1, ids[0])
	require.NoError(t, err)
	require.True(t, res.Found)
	require.True(t, res.Updated)

	res, err = repo.MarkRead(ctx, 1, ids[0])
	require.NoError(t, err)
	require.True(t, res.Found)
	require.False(t, res.Updated)

	unread, _, err := repo.List(ctx, listAlertsParams{UserID: 1, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 2)

	count, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestRepositoryDelete(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	ids := seedAlerts(t, repo, 1, 3)
	seedAlerts(t, repo, 2, 1)

	deleted, err := repo.Delete(ctx, 2, ids[0])
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = repo.Delete(ctx, 1, ids[0])
	require.NoError(t, err)
	require.True(t, deleted)

	count, err := repo.DeleteByUser(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	rest, _, err := repo.List(ctx, listAlertsParams{UserID: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestRepositoryDeleteReadBefore(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.Alert{
		{UserID: 1, Category: enums.AlertCategoryChat, Content: "old read", IsRead: true, CreatedAt: cutoff.Add(-48 * time.Hour)},
		{UserID: 2, Category: enums.AlertCategoryTodo, Content: "old read", IsRead: true, CreatedAt: cutoff.Add(-time.Hour)},
		{UserID: 1, Category: enums.AlertCategoryChat, Content: "old unread", CreatedAt: cutoff.Add(-48 * time.Hour)},
		{UserID: 1, Category: enums.AlertCategoryChat, Content: "new read", IsRead: true, CreatedAt: cutoff.Add(time.Hour)},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	removed, err := repo.DeleteReadBefore(ctx, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	rest, _, err := repo.List(ctx, listAlertsParams{UserID: 1})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, alert := range rest {
		require.NotEqual(t, "old read", alert.Content)
	}
}
