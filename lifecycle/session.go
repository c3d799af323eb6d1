package lifecycle

import (
	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/models"
)

// Session identifies who is asking. It is resolved once per request and
// passed explicitly into every lifecycle call.
type Session struct {
	UserID uuid.UUID
	Role   models.Role
}

func (s Session) IsCreator() bool {
	return s.Role == models.RoleCreator
}

func (s Session) IsEditor() bool {
	return s.Role == models.RoleEditor
}

// Owns reports whether the session is the project's creator
func (s Session) Owns(p *models.Project) bool {
	return s.IsCreator() && p.CreatorID == s.UserID
}

// AssignedTo reports whether the session is the project's editor
func (s Session) AssignedTo(p *models.Project) bool {
	return s.IsEditor() && p.AssignedTo(s.UserID)
}

// CanView reports whether the session may read the project, its versions and its comments.
// Editors may preview projects that are open for claiming.
func (s Session) CanView(p *models.Project) bool {
	if s.Owns(p) || s.AssignedTo(p) {
		return true
	}
	return s.IsEditor() && p.Status == models.StatusSubmitted && p.EditorID == nil
}
