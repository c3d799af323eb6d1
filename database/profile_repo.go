package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"gorm.io/gorm"
)

type ProfileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db}
}

// Add inserts a new profile; a second profile for the same user fails with AlreadyExists
func (r *ProfileRepo) Add(ctx context.Context, profile *models.Profile) error {
	return translate("create", "profile", r.db.WithContext(ctx).Create(profile).Error)
}

// FindByID returns a profile by its user id
func (r *ProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate("find", "profile", err)
	}
	return &profile, nil
}

// Update writes the editable profile columns. The role is never touched.
func (r *ProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).
		Model(profile).
		Select("bio", "skillset", "portfolio_urls", "preferences", "updated_at").
		Updates(profile)
	if res.Error != nil {
		return translate("update", "profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("profile")
	}
	return nil
}
