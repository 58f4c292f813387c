package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scsaalabs/memberhub/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var e domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM events WHERE id = ?`, id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Event, error) {
	var e domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM events WHERE slug = ? LIMIT 1`, slug,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) ListUpcoming(ctx context.Context, db *gorm.DB, after time.Time, limit int) ([]domain.Event, error) {
	var items []domain.Event
	stmt := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("starts_at >= ?", after).
		Order("starts_at asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.Event, error) {
	var items []domain.Event
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Order("starts_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	if event == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE events
		 SET title = ?, slug = ?, description = ?, location = ?, starts_at = ?, ends_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Slug,
		event.Description,
		event.Location,
		event.StartsAt,
		event.EndsAt,
		event.Metadata,
		event.UpdatedAt,
		event.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM events WHERE id = ?`, id).Error
}
