package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Announcement is a news post on the member dashboard. Drafts stay hidden
// until published_at is set.
type Announcement struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"type:text;not null"`
	Slug        string         `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Body        string         `json:"body" gorm:"type:text;not null;default:''"`
	PublishedAt *time.Time     `json:"published_at"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedBy   snowflake.ID   `json:"created_by" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"not null"`
}

func (Announcement) TableName() string { return "announcements" }

func (a Announcement) Published() bool { return a.PublishedAt != nil }

var (
	ErrAnnouncementNotFound = errors.New("announcement_not_found")
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrSlugTaken            = errors.New("slug_taken")
)

type CreateRequest struct {
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Publish   bool           `json:"publish"`
	Metadata  datatypes.JSON `json:"metadata"`
	CreatedBy snowflake.ID   `json:"-"`
}

type UpdateRequest struct {
	Title    *string        `json:"title"`
	Body     *string        `json:"body"`
	Publish  *bool          `json:"publish"`
	Metadata datatypes.JSON `json:"metadata"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Announcement, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*Announcement, error)
	Delete(ctx context.Context, id snowflake.ID) error
	GetBySlug(ctx context.Context, slug string) (*Announcement, error)
	ListPublished(ctx context.Context, limit int) ([]Announcement, error)
	ListAll(ctx context.Context) ([]Announcement, error)
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, announcement *Announcement) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Announcement, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Announcement, error)
	ListPublished(ctx context.Context, db *gorm.DB, limit int) ([]Announcement, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]Announcement, error)
	Update(ctx context.Context, db *gorm.DB, announcement *Announcement) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
