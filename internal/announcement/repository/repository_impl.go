package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/scsaalabs/memberhub/internal/announcement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, announcement *domain.Announcement) error {
	return db.WithContext(ctx).Create(announcement).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Announcement, error) {
	var a domain.Announcement
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM announcements WHERE id = ?`, id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Announcement, error) {
	var a domain.Announcement
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM announcements WHERE slug = ? LIMIT 1`, slug,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) ListPublished(ctx context.Context, db *gorm.DB, limit int) ([]domain.Announcement, error) {
	var items []domain.Announcement
	stmt := db.WithContext(ctx).
		Model(&domain.Announcement{}).
		Where("published_at IS NOT NULL").
		Order("published_at desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.Announcement, error) {
	var items []domain.Announcement
	err := db.WithContext(ctx).
		Model(&domain.Announcement{}).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, announcement *domain.Announcement) error {
	if announcement == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE announcements
		 SET title = ?, slug = ?, body = ?, published_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		announcement.Title,
		announcement.Slug,
		announcement.Body,
		announcement.PublishedAt,
		announcement.Metadata,
		announcement.UpdatedAt,
		announcement.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM announcements WHERE id = ?`, id).Error
}
