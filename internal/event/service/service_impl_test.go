package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/scsaalabs/memberhub/internal/clock"
	"github.com/scsaalabs/memberhub/internal/event/domain"
	"github.com/scsaalabs/memberhub/internal/event/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed(testNow),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestCreate_SlugFromTitle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, domain.CreateRequest{
		Title:    "  Spring Reunion 2026!  ",
		Location: "Alumni Hall",
		StartsAt: testNow.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring Reunion 2026!", e.Title)
	assert.Equal(t, "spring-reunion-2026", e.Slug)
	assert.Equal(t, testNow, e.CreatedAt)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{StartsAt: testNow})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = svc.Create(ctx, domain.CreateRequest{Title: "No date"})
	assert.ErrorIs(t, err, domain.ErrInvalidStart)
}

func TestCreate_DuplicateSlugRejected(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		Title:    "Annual Gala",
		StartsAt: testNow.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Title:    "Annual Gala",
		StartsAt: testNow.AddDate(0, 2, 0),
	})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestUpdate_RetitleRecomputesSlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, domain.CreateRequest{
		Title:    "Career Night",
		StartsAt: testNow.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	newTitle := "Career Networking Night"
	updated, err := svc.Update(ctx, e.ID, domain.UpdateRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "career-networking-night", updated.Slug)

	got, err := svc.GetBySlug(ctx, "career-networking-night")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newService(t)
	node, _ := snowflake.NewNode(2)

	_, err := svc.Update(context.Background(), node.Generate(), domain.UpdateRequest{})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestListUpcoming_ExcludesPast(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		Title:    "Past Event",
		StartsAt: testNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Title:    "Future Event",
		StartsAt: testNow.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	items, err := svc.ListUpcoming(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "future-event", items[0].Slug)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, domain.CreateRequest{
		Title:    "Cancelled Mixer",
		StartsAt: testNow.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, e.ID))

	_, err = svc.GetBySlug(ctx, e.Slug)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), domain.ErrEventNotFound)
}
