package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectVersion is one immutable edit delivered by the assigned editor
type ProjectVersion struct {
	ID            uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID     uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_project_version_number"`
	VersionNumber int       `json:"version_number" db:"version_number" gorm:"type:integer;not null;uniqueIndex:idx_project_version_number"`
	VideoURL      string    `json:"video_url" db:"video_url" gorm:"column:video_url;type:text;not null"`
	EditorNotes   *string   `json:"editor_notes,omitempty" db:"editor_notes" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
