package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is feedback left on a project by its creator or assigned editor.
// Timestamp, when set, points at a position (in seconds) of the reviewed video.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_comment_project_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;not null"`
	Content   string    `json:"content" db:"content" gorm:"type:text;not null"`
	Timestamp *float64  `json:"timestamp,omitempty" db:"timestamp" gorm:"type:double precision"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
