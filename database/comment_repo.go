package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// Append inserts the comment while holding a share lock on the project, so a concurrent
// status change either lands before the guard check or waits for the insert.
func (r *CommentRepo) Append(ctx context.Context, guard lifecycle.Guard, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, comment.ProjectID, "SHARE")
		if err != nil {
			return err
		}
		if !guard.Matches(project) {
			return errs.ErrStale
		}
		comment.CreatedAt = time.Now()
		return tx.Create(comment).Error
	})
	return translate("append", "comment", err)
}

// FindByProject returns a project's comments oldest first
func (r *CommentRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, translate("list", "comments", err)
	}
	return comments, nil
}
