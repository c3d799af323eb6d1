package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Profile holds the marketplace identity of an authenticated user. ID equals the auth user id.
type Profile struct {
	ID            uuid.UUID                   `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Email         string                      `json:"email" db:"email" gorm:"type:text;not null;default:''"`
	Role          Role                        `json:"role" db:"role" gorm:"type:text;not null"`
	Bio           *string                     `json:"bio,omitempty" db:"bio" gorm:"type:text"`
	Skillset      datatypes.JSONSlice[string] `json:"skillset,omitempty" db:"skillset" gorm:"type:jsonb"`
	PortfolioURLs datatypes.JSONSlice[string] `json:"portfolio_urls,omitempty" db:"portfolio_urls" gorm:"column:portfolio_urls;type:jsonb"`
	Preferences   datatypes.JSON              `json:"preferences,omitempty" db:"preferences" gorm:"type:jsonb"`
	CreatedAt     time.Time                   `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time                   `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
