package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a creator's editing job and the unit the lifecycle operates on
type Project struct {
	ID                  uuid.UUID     `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	CreatorID           uuid.UUID     `json:"creator_id" db:"creator_id" gorm:"type:uuid;not null;index:idx_project_creator_id"`
	EditorID            *uuid.UUID    `json:"editor_id,omitempty" db:"editor_id" gorm:"type:uuid;index:idx_project_editor_id"`
	Title               string        `json:"title" db:"title" gorm:"type:text;not null"`
	Description         string        `json:"description" db:"description" gorm:"type:text;not null;default:''"`
	RawFootageURL       string        `json:"raw_footage_url" db:"raw_footage_url" gorm:"column:raw_footage_url;type:text;not null;default:''"`
	EditingInstructions string        `json:"editing_instructions" db:"editing_instructions" gorm:"type:text;not null;default:''"`
	ReelType            ReelType      `json:"reel_type" db:"reel_type" gorm:"type:text;not null"`
	PricingTier         PricingTier   `json:"pricing_tier" db:"pricing_tier" gorm:"type:text;not null"`
	CustomPrice         *float64      `json:"custom_price,omitempty" db:"custom_price" gorm:"type:numeric(10,2)"`
	Status              ProjectStatus `json:"status" db:"status" gorm:"type:text;not null;default:'draft';index:idx_project_status"`
	AIBrief             *string       `json:"ai_brief,omitempty" db:"ai_brief" gorm:"column:ai_brief;type:text"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Versions []ProjectVersion `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Comments []Comment        `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// AssignedTo reports whether userID is the project's editor
func (p *Project) AssignedTo(userID uuid.UUID) bool {
	return p.EditorID != nil && *p.EditorID == userID
}
