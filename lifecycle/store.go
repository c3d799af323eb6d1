package lifecycle

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/models"
)

// Guard is the precondition a store must check atomically with the write it protects.
// A write whose guard does not hold must fail with errs.ErrStale and change nothing.
type Guard struct {
	From       []models.ProjectStatus
	Unassigned bool
	EditorID   *uuid.UUID

	// Submittable requires every field a submitted project must carry to be non-blank
	Submittable bool
}

func (g Guard) Matches(p *models.Project) bool {
	if len(g.From) > 0 && !slices.Contains(g.From, p.Status) {
		return false
	}
	if g.Unassigned && p.EditorID != nil {
		return false
	}
	if g.EditorID != nil && !p.AssignedTo(*g.EditorID) {
		return false
	}
	if g.Submittable && requireSubmittable(p) != nil {
		return false
	}
	return true
}

// Changes lists the project columns a guarded update writes. Nil members are left alone.
type Changes struct {
	Status        *models.ProjectStatus
	EditorID      *uuid.UUID
	Fields        *ProjectInput
	RawFootageURL *string
	AIBrief       *string
}

// Apply writes the changes onto an in-memory project
func (c Changes) Apply(p *models.Project, now time.Time) {
	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.EditorID != nil {
		id := *c.EditorID
		p.EditorID = &id
	}
	if c.Fields != nil {
		p.Title = c.Fields.Title
		p.Description = c.Fields.Description
		p.RawFootageURL = c.Fields.RawFootageURL
		p.EditingInstructions = c.Fields.EditingInstructions
		p.ReelType = c.Fields.ReelType
		p.PricingTier = c.Fields.PricingTier
		p.CustomPrice = c.Fields.CustomPrice
	}
	if c.RawFootageURL != nil {
		p.RawFootageURL = *c.RawFootageURL
	}
	if c.AIBrief != nil {
		brief := *c.AIBrief
		p.AIBrief = &brief
	}
	p.UpdatedAt = now
}

// Columns returns the changes keyed by column name, for SQL stores
func (c Changes) Columns(now time.Time) map[string]any {
	columns := map[string]any{"updated_at": now}
	if c.Status != nil {
		columns["status"] = *c.Status
	}
	if c.EditorID != nil {
		columns["editor_id"] = *c.EditorID
	}
	if c.Fields != nil {
		columns["title"] = c.Fields.Title
		columns["description"] = c.Fields.Description
		columns["raw_footage_url"] = c.Fields.RawFootageURL
		columns["editing_instructions"] = c.Fields.EditingInstructions
		columns["reel_type"] = c.Fields.ReelType
		columns["pricing_tier"] = c.Fields.PricingTier
		columns["custom_price"] = c.Fields.CustomPrice
	}
	if c.RawFootageURL != nil {
		columns["raw_footage_url"] = *c.RawFootageURL
	}
	if c.AIBrief != nil {
		columns["ai_brief"] = *c.AIBrief
	}
	return columns
}

type SortOrder int

const (
	SortByUpdated SortOrder = iota
	SortByCreated
)

// ProjectFilter narrows project listings. Results are always newest first.
type ProjectFilter struct {
	CreatorID  *uuid.UUID
	EditorID   *uuid.UUID
	Unassigned bool
	Status     *models.ProjectStatus
	ReelType   *models.ReelType
	SortBy     SortOrder
}

func (f ProjectFilter) Matches(p *models.Project) bool {
	if f.CreatorID != nil && p.CreatorID != *f.CreatorID {
		return false
	}
	if f.EditorID != nil && !p.AssignedTo(*f.EditorID) {
		return false
	}
	if f.Unassigned && p.EditorID != nil {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.ReelType != nil && p.ReelType != *f.ReelType {
		return false
	}
	return true
}

// Store is the persistence contract of the lifecycle.
// Lookups of missing rows fail with an errs NotFound error; guarded writes whose
// guard does not hold fail with errs.ErrStale.
type Store interface {
	AddProfile(ctx context.Context, profile *models.Profile) error
	FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	AddProject(ctx context.Context, project *models.Project) error
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindProjects(ctx context.Context, filter ProjectFilter) ([]*models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, guard Guard, changes Changes) (*models.Project, error)
	// DeleteProject removes the project together with its versions and comments
	DeleteProject(ctx context.Context, id uuid.UUID, guard Guard) error

	// AppendVersion numbers the version max+1 within the project, inserts it and moves the
	// project to advance(number), all as one unit serialised per project.
	AppendVersion(ctx context.Context, guard Guard, version *models.ProjectVersion, advance func(versionNumber int) models.ProjectStatus) (*models.Project, error)
	FindVersions(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectVersion, error)

	AppendComment(ctx context.Context, guard Guard, comment *models.Comment) error
	FindComments(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error)
}
