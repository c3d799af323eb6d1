package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"gorm.io/gorm"
)

// maxAppendAttempts bounds retries of a version insert that lost the number race
const maxAppendAttempts = 3

type VersionRepo struct {
	db *gorm.DB
}

func NewVersionRepo(db *gorm.DB) *VersionRepo {
	return &VersionRepo{db}
}

// Append locks the project row, numbers the version max+1, inserts it and advances the
// project status in one transaction. The unique (project_id, version_number) index is the
// backstop; a duplicate rolls back and is retried with a fresh number.
func (r *VersionRepo) Append(ctx context.Context, guard lifecycle.Guard, version *models.ProjectVersion, advance func(int) models.ProjectStatus) (*models.Project, error) {
	var err error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		var project *models.Project
		project, err = r.appendOnce(ctx, guard, version, advance)
		if err == nil {
			return project, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, translate("append", "version", err)
		}
	}
	return nil, errs.NewUniqueConstraintViolationError("project_version", "version_number", err)
}

func (r *VersionRepo) appendOnce(ctx context.Context, guard lifecycle.Guard, version *models.ProjectVersion, advance func(int) models.ProjectStatus) (*models.Project, error) {
	var project *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = lockProject(tx, version.ProjectID, "UPDATE")
		if err != nil {
			return err
		}
		if !guard.Matches(project) {
			return errs.ErrStale
		}

		var last int
		err = tx.Model(&models.ProjectVersion{}).
			Where("project_id = ?", version.ProjectID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&last).Error
		if err != nil {
			return err
		}

		now := time.Now()
		version.VersionNumber = last + 1
		version.CreatedAt = now
		if err := tx.Create(version).Error; err != nil {
			return err
		}

		status := advance(version.VersionNumber)
		changes := lifecycle.Changes{Status: &status}
		if err := tx.Model(project).Updates(changes.Columns(now)).Error; err != nil {
			return err
		}
		changes.Apply(project, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// FindByProject returns a project's versions in delivery order
func (r *VersionRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectVersion, error) {
	var versions []*models.ProjectVersion
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version_number ASC").
		Find(&versions).Error
	if err != nil {
		return nil, translate("list", "versions", err)
	}
	return versions, nil
}
