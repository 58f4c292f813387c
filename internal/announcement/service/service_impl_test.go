package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/scsaalabs/memberhub/internal/announcement/domain"
	"github.com/scsaalabs/memberhub/internal/announcement/repository"
	"github.com/scsaalabs/memberhub/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Announcement{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed(testNow),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreate_DraftAndPublish(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	draft, err := svc.Create(ctx, domain.CreateRequest{
		Title: "Homecoming Weekend Schedule",
		Body:  "Full schedule inside.",
	})
	require.NoError(t, err)
	assert.Equal(t, "homecoming-weekend-schedule", draft.Slug)
	assert.False(t, draft.Published())

	published, err := svc.Create(ctx, domain.CreateRequest{
		Title:   "Dues Deadline Reminder",
		Body:    "Renew by March 31.",
		Publish: true,
	})
	require.NoError(t, err)
	assert.True(t, published.Published())
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, testNow, *published.PublishedAt)

	// Only the published post shows on the public listing.
	items, err := svc.ListPublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dues-deadline-reminder", items[0].Slug)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate_PublishAndUnpublish(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.CreateRequest{Title: "Board Election Results"})
	require.NoError(t, err)

	publish := true
	updated, err := svc.Update(ctx, a.ID, domain.UpdateRequest{Publish: &publish})
	require.NoError(t, err)
	assert.True(t, updated.Published())

	unpublish := false
	updated, err = svc.Update(ctx, a.ID, domain.UpdateRequest{Publish: &unpublish})
	require.NoError(t, err)
	assert.False(t, updated.Published())
}

func TestCreate_DuplicateSlugRejected(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Title: "Chapter News"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Title: "Chapter News"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}
