package services

import (
	"context"
	"testing"
	"time"

	"github.com/VictorBagz/KBR/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArticle(t *testing.T, s *NewsService, status string, publishAt *time.Time) *models.NewsItem {
	t.Helper()
	item := &models.NewsItem{
		ID:        uuid.NewString(),
		Title:     "Kobs Seal Late Win",
		Slug:      "kobs-seal-late-win-" + uuid.NewString()[:8],
		Status:    status,
		PublishAt: publishAt,
	}
	require.NoError(t, s.DB.Create(item).Error)
	return item
}

func TestPublishDue(t *testing.T) {
	db := setupTestDB(t)
	news := NewNewsService(db, nil)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due := seedArticle(t, news, models.NewsScheduled, &past)
	notYet := seedArticle(t, news, models.NewsScheduled, &future)
	seedArticle(t, news, models.NewsPublished, nil)

	n, err := news.PublishDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var published models.NewsItem
	require.NoError(t, db.First(&published, "id = ?", due.ID).Error)
	assert.Equal(t, models.NewsPublished, published.Status)
	assert.Nil(t, published.PublishAt)

	var pending models.NewsItem
	require.NoError(t, db.First(&pending, "id = ?", notYet.ID).Error)
	assert.Equal(t, models.NewsScheduled, pending.Status)
}

func TestListPublishedHidesDraftsAndScheduled(t *testing.T) {
	db := setupTestDB(t)
	news := NewNewsService(db, nil)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	seedArticle(t, news, models.NewsPublished, nil)
	seedArticle(t, news, models.NewsScheduled, &future)
	seedArticle(t, news, models.NewsDraft, nil)

	items, err := news.ListPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGetBySlugOrID(t *testing.T) {
	db := setupTestDB(t)
	news := NewNewsService(db, nil)
	ctx := context.Background()

	item := seedArticle(t, news, models.NewsPublished, nil)

	bySlug, err := news.GetBySlug(ctx, item.Slug)
	require.NoError(t, err)
	assert.Equal(t, item.ID, bySlug.ID)

	byID, err := news.GetBySlug(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, byID.ID)

	_, err = news.GetBySlug(ctx, "nothing-here")
	assert.ErrorIs(t, err, ErrNewsNotFound)
}
