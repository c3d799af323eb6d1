package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"gorm.io/gorm"
)

// Database bundles the repos and satisfies lifecycle.Store
type Database struct {
	profileRepo *ProfileRepo
	projectRepo *ProjectRepo
	versionRepo *VersionRepo
	commentRepo *CommentRepo
}

var _ lifecycle.Store = Database{}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		profileRepo: NewProfileRepo(db),
		projectRepo: NewProjectRepo(db),
		versionRepo: NewVersionRepo(db),
		commentRepo: NewCommentRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProfileRepo() *ProfileRepo {
	return d.profileRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) VersionRepo() *VersionRepo {
	return d.versionRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) AddProfile(ctx context.Context, profile *models.Profile) error {
	return d.profileRepo.Add(ctx, profile)
}

func (d Database) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return d.profileRepo.FindByID(ctx, id)
}

func (d Database) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return d.profileRepo.Update(ctx, profile)
}

func (d Database) AddProject(ctx context.Context, project *models.Project) error {
	return d.projectRepo.Add(ctx, project)
}

func (d Database) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return d.projectRepo.FindByID(ctx, id)
}

func (d Database) FindProjects(ctx context.Context, filter lifecycle.ProjectFilter) ([]*models.Project, error) {
	return d.projectRepo.FindAll(ctx, filter)
}

func (d Database) UpdateProject(ctx context.Context, id uuid.UUID, guard lifecycle.Guard, changes lifecycle.Changes) (*models.Project, error) {
	return d.projectRepo.Update(ctx, id, guard, changes)
}

func (d Database) DeleteProject(ctx context.Context, id uuid.UUID, guard lifecycle.Guard) error {
	return d.projectRepo.Delete(ctx, id, guard)
}

func (d Database) AppendVersion(ctx context.Context, guard lifecycle.Guard, version *models.ProjectVersion, advance func(int) models.ProjectStatus) (*models.Project, error) {
	return d.versionRepo.Append(ctx, guard, version, advance)
}

func (d Database) FindVersions(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectVersion, error) {
	return d.versionRepo.FindByProject(ctx, projectID)
}

func (d Database) AppendComment(ctx context.Context, guard lifecycle.Guard, comment *models.Comment) error {
	return d.commentRepo.Append(ctx, guard, comment)
}

func (d Database) FindComments(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	return d.commentRepo.FindByProject(ctx, projectID)
}
