package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is an association happening: a reunion, a talk, a networking night.
// Slugs are derived from the title and unique, so they double as the public
// URL identifier.
type Event struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"type:text;not null"`
	Slug        string         `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text;not null;default:''"`
	Location    string         `json:"location" gorm:"type:text;not null;default:''"`
	StartsAt    time.Time      `json:"starts_at" gorm:"not null"`
	EndsAt      *time.Time     `json:"ends_at"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedBy   snowflake.ID   `json:"created_by" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"not null"`
}

func (Event) TableName() string { return "events" }

var (
	ErrEventNotFound = errors.New("event_not_found")
	ErrInvalidTitle  = errors.New("invalid_title")
	ErrInvalidStart  = errors.New("invalid_start")
	ErrSlugTaken     = errors.New("slug_taken")
)
