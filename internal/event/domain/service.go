package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedBy   snowflake.ID   `json:"-"`
}

type UpdateRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Location    *string        `json:"location"`
	StartsAt    *time.Time     `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	Metadata    datatypes.JSON `json:"metadata"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Event, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*Event, error)
	Delete(ctx context.Context, id snowflake.ID) error
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	ListUpcoming(ctx context.Context, limit int) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, event *Event) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Event, error)
	ListUpcoming(ctx context.Context, db *gorm.DB, after time.Time, limit int) ([]Event, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]Event, error)
	Update(ctx context.Context, db *gorm.DB, event *Event) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
