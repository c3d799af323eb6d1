package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *ProjectRepo) GetDB() *gorm.DB {
	return r.db
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return translate("create", "project", r.db.WithContext(ctx).Omit("Versions", "Comments").Create(project).Error)
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// findPrimary reads from the primary so a lost guarded write is explained by fresh data
func (r *ProjectRepo) findPrimary(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.find(r.db.WithContext(ctx).Clauses(dbresolver.Write), id)
}

func (r *ProjectRepo) find(db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate("find", "project", err)
	}
	return &project, nil
}

// FindAll returns the projects matching the filter, newest first
func (r *ProjectRepo) FindAll(ctx context.Context, filter lifecycle.ProjectFilter) ([]*models.Project, error) {
	order := "updated_at DESC"
	if filter.SortBy == lifecycle.SortByCreated {
		order = "created_at DESC"
	}

	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Scopes(filterScope(filter)).
		Order(order).
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, translate("list", "projects", err)
	}
	return projects, nil
}

// Update applies the changes only if the guard still holds, in a single statement.
// A missed guard is reported as errs.ErrStale.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, guard lifecycle.Guard, changes lifecycle.Changes) (*models.Project, error) {
	var project models.Project
	res := r.db.WithContext(ctx).
		Model(&project).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Scopes(guardScope(guard)).
		Updates(changes.Columns(time.Now()))
	if res.Error != nil {
		return nil, translate("update", "project", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.missed(ctx, id)
	}
	return &project, nil
}

// Delete removes the project if the guard still holds. Versions and comments go with it.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID, guard lifecycle.Guard) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Scopes(guardScope(guard)).
		Delete(&models.Project{})
	if res.Error != nil {
		return translate("delete", "project", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missed(ctx, id)
	}
	return nil
}

// missed explains a guarded write that matched no row
func (r *ProjectRepo) missed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.findPrimary(ctx, id); err != nil {
		return err
	}
	return errs.ErrStale
}

// lockProject loads the project inside tx with a row lock of the given strength (UPDATE or SHARE)
func lockProject(tx *gorm.DB, id uuid.UUID, strength string) (*models.Project, error) {
	var project models.Project
	err := tx.Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, translate("lock", "project", err)
	}
	return &project, nil
}

func statusValues(statuses []models.ProjectStatus) []string {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}

func guardScope(guard lifecycle.Guard) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(guard.From) > 0 {
			db = db.Where("status IN ?", statusValues(guard.From))
		}
		if guard.Unassigned {
			db = db.Where("editor_id IS NULL")
		}
		if guard.EditorID != nil {
			db = db.Where("editor_id = ?", *guard.EditorID)
		}
		if guard.Submittable {
			db = db.Where("btrim(title) <> '' AND btrim(description) <> '' AND btrim(raw_footage_url) <> '' AND btrim(editing_instructions) <> ''")
		}
		return db
	}
}

func filterScope(filter lifecycle.ProjectFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.CreatorID != nil {
			db = db.Where("creator_id = ?", *filter.CreatorID)
		}
		if filter.EditorID != nil {
			db = db.Where("editor_id = ?", *filter.EditorID)
		}
		if filter.Unassigned {
			db = db.Where("editor_id IS NULL")
		}
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.ReelType != nil {
			db = db.Where("reel_type = ?", string(*filter.ReelType))
		}
		return db
	}
}
