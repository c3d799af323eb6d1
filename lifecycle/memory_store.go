package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
)

// MemoryStore keeps everything in process memory. One lock serialises all writes,
// which makes every guarded write trivially atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]models.Profile
	projects map[uuid.UUID]models.Project
	versions map[uuid.UUID][]models.ProjectVersion
	comments map[uuid.UUID][]models.Comment
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uuid.UUID]models.Profile),
		projects: make(map[uuid.UUID]models.Project),
		versions: make(map[uuid.UUID][]models.ProjectVersion),
		comments: make(map[uuid.UUID][]models.Comment),
		now:      time.Now,
	}
}

func (m *MemoryStore) AddProfile(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[profile.ID]; ok {
		return errs.NewAlreadyExists("profile")
	}
	now := m.now()
	profile.CreatedAt, profile.UpdatedAt = now, now
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MemoryStore) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[id]
	if !ok {
		return nil, errs.NewNotFound("profile")
	}
	return &profile, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.profiles[profile.ID]
	if !ok {
		return errs.NewNotFound("profile")
	}
	profile.Role = current.Role
	profile.CreatedAt = current.CreatedAt
	profile.UpdatedAt = m.now()
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MemoryStore) AddProject(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[project.ID]; ok {
		return errs.NewAlreadyExists("project")
	}
	now := m.now()
	project.CreatedAt, project.UpdatedAt = now, now
	m.projects[project.ID] = *project
	return nil
}

func (m *MemoryStore) FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	project, ok := m.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	return &project, nil
}

func (m *MemoryStore) FindProjects(ctx context.Context, filter ProjectFilter) ([]*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]*models.Project, 0)
	for _, p := range m.projects {
		p := p
		if filter.Matches(&p) {
			projects = append(projects, &p)
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if filter.SortBy == SortByCreated {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return projects, nil
}

func (m *MemoryStore) UpdateProject(ctx context.Context, id uuid.UUID, guard Guard, changes Changes) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	if !guard.Matches(&project) {
		return nil, errs.ErrStale
	}

	changes.Apply(&project, m.now())
	m.projects[id] = project
	return &project, nil
}

func (m *MemoryStore) DeleteProject(ctx context.Context, id uuid.UUID, guard Guard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[id]
	if !ok {
		return errs.NewNotFound("project")
	}
	if !guard.Matches(&project) {
		return errs.ErrStale
	}

	delete(m.projects, id)
	delete(m.versions, id)
	delete(m.comments, id)
	return nil
}

func (m *MemoryStore) AppendVersion(ctx context.Context, guard Guard, version *models.ProjectVersion, advance func(int) models.ProjectStatus) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[version.ProjectID]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	if !guard.Matches(&project) {
		return nil, errs.ErrStale
	}

	existing := m.versions[version.ProjectID]
	number := 1
	if len(existing) > 0 {
		number = existing[len(existing)-1].VersionNumber + 1
	}

	now := m.now()
	version.VersionNumber = number
	version.CreatedAt = now
	m.versions[version.ProjectID] = append(existing, *version)

	status := advance(number)
	Changes{Status: &status}.Apply(&project, now)
	m.projects[project.ID] = project
	return &project, nil
}

func (m *MemoryStore) FindVersions(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.versions[projectID]
	versions := make([]*models.ProjectVersion, len(stored))
	for i := range stored {
		v := stored[i]
		versions[i] = &v
	}
	return versions, nil
}

func (m *MemoryStore) AppendComment(ctx context.Context, guard Guard, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[comment.ProjectID]
	if !ok {
		return errs.NewNotFound("project")
	}
	if !guard.Matches(&project) {
		return errs.ErrStale
	}

	comment.CreatedAt = m.now()
	m.comments[comment.ProjectID] = append(m.comments[comment.ProjectID], *comment)
	return nil
}

func (m *MemoryStore) FindComments(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.comments[projectID]
	comments := make([]*models.Comment, len(stored))
	for i := range stored {
		c := stored[i]
		comments[i] = &c
	}
	return comments, nil
}
