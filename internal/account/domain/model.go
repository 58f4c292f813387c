package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Account is one registered member. Rows are created by the registration
// flow, which lives outside this service; everything here is read-only.
type Account struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Email     string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	FirstName string       `json:"first_name" gorm:"type:text;not null"`
	LastName  string       `json:"last_name" gorm:"type:text;not null"`
	IsAdmin   bool         `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Account) TableName() string { return "users" }

var ErrAccountNotFound = errors.New("account_not_found")

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	List(ctx context.Context, db *gorm.DB) ([]Account, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	RecentSignups(ctx context.Context, db *gorm.DB, limit int) ([]Account, error)
}
