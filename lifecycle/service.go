package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Service runs every project operation through the Machine before touching the Store
type Service struct {
	store    Store
	machine  Machine
	notifier Notifier
	briefs   BriefWriter
	logger   zerolog.Logger
	validate *validator.Validate
}

type Option func(*Service)

func WithVersionPolicy(policy VersionPolicy) Option {
	return func(s *Service) {
		s.machine = NewMachine(policy)
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithBriefWriter(briefs BriefWriter) Option {
	return func(s *Service) {
		s.briefs = briefs
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		machine:  NewMachine(ReviewEveryVersion),
		notifier: NopNotifier{},
		logger:   log.With().Str("component", "lifecycle").Logger(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Machine() Machine {
	return s.machine
}

// ProjectDetail is a project with its logs and the actions the viewer may take
type ProjectDetail struct {
	Project  *models.Project          `json:"project"`
	Versions []*models.ProjectVersion `json:"versions"`
	Comments []*models.Comment        `json:"comments"`
	Actions  []Action                 `json:"actions"`
}

// DashboardStats summarises the projects a session works on
type DashboardStats struct {
	Role      models.Role                  `json:"role"`
	Total     int                          `json:"total"`
	ByStatus  map[models.ProjectStatus]int `json:"by_status"`
	Active    int                          `json:"active"`
	Completed int                          `json:"completed"`
	Available int                          `json:"available"`
}

// Profiles

func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, email string, in ProfileInput) (*models.Profile, error) {
	if in.Role == "" {
		return nil, errs.NewMissingRequiredFieldError("role")
	}
	if err := validateProfileInput(s.validate, &in); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:            userID,
		Email:         email,
		Role:          in.Role,
		Bio:           in.Bio,
		Skillset:      datatypes.NewJSONSlice(in.Skillset),
		PortfolioURLs: datatypes.NewJSONSlice(in.PortfolioURLs),
		Preferences:   datatypes.JSON(in.Preferences),
	}
	if len(profile.Preferences) == 0 {
		profile.Preferences = datatypes.JSON("{}")
	}
	if err := s.store.AddProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", userID.String()).Str("role", string(in.Role)).Msg("profile created")
	return profile, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.store.FindProfile(ctx, userID)
}

// UpdateProfile replaces the editable profile fields; the role never changes
func (s *Service) UpdateProfile(ctx context.Context, session Session, in ProfileInput) (*models.Profile, error) {
	if err := validateProfileInput(s.validate, &in); err != nil {
		return nil, err
	}
	if in.Role != "" && in.Role != session.Role {
		return nil, errs.NewInvalidFieldError("role", "cannot be changed after sign-up")
	}

	profile, err := s.store.FindProfile(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	profile.Bio = in.Bio
	profile.Skillset = datatypes.NewJSONSlice(in.Skillset)
	profile.PortfolioURLs = datatypes.NewJSONSlice(in.PortfolioURLs)
	if len(in.Preferences) > 0 {
		profile.Preferences = datatypes.JSON(in.Preferences)
	}
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ResolveSession loads the role of an authenticated user
func (s *Service) ResolveSession(ctx context.Context, userID uuid.UUID) (Session, error) {
	profile, err := s.store.FindProfile(ctx, userID)
	if err != nil {
		if errs.IsNotFound(err) {
			return Session{}, errs.NewMissingProfileError()
		}
		return Session{}, err
	}
	return Session{UserID: profile.ID, Role: profile.Role}, nil
}

// Project fields

func (s *Service) CreateProject(ctx context.Context, session Session, in ProjectInput) (*models.Project, error) {
	if !session.IsCreator() {
		return nil, errs.NewInsufficientRoleError(string(models.RoleCreator))
	}
	if err := validateProjectInput(s.validate, &in); err != nil {
		return nil, err
	}

	project := &models.Project{
		ID:                  uuid.New(),
		CreatorID:           session.UserID,
		Title:               in.Title,
		Description:         in.Description,
		RawFootageURL:       in.RawFootageURL,
		EditingInstructions: in.EditingInstructions,
		ReelType:            in.ReelType,
		PricingTier:         in.PricingTier,
		CustomPrice:         in.CustomPrice,
		Status:              models.StatusDraft,
	}
	if err := s.store.AddProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info().Str("projectID", project.ID.String()).Str("creatorID", session.UserID.String()).Msg("project created")
	return project, nil
}

// UpdateProject replaces the creator-editable fields while the project is a draft or submitted
func (s *Service) UpdateProject(ctx context.Context, session Session, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	project, err := s.checked(ctx, session, id, ActionEditFields)
	if err != nil {
		return nil, err
	}
	if err := validateProjectInput(s.validate, &in); err != nil {
		return nil, err
	}

	changes := Changes{Fields: &in}
	if project.Status == models.StatusSubmitted {
		preview := *project
		changes.Apply(&preview, time.Now())
		if err := requireSubmittable(&preview); err != nil {
			return nil, err
		}
	}

	// pinned to the status that was read so a concurrent submit cannot skip the check above
	guard := Guard{From: []models.ProjectStatus{project.Status}}
	return s.update(ctx, session, id, ActionEditFields, guard, changes)
}

// SetRawFootage points the project at newly uploaded footage
func (s *Service) SetRawFootage(ctx context.Context, session Session, id uuid.UUID, url string) (*models.Project, error) {
	if _, err := s.checked(ctx, session, id, ActionEditFields); err != nil {
		return nil, err
	}
	if err := s.validate.Var(url, "required,url"); err != nil {
		return nil, errs.NewInvalidFieldError("raw_footage_url", "must be a valid URL")
	}

	guard := Guard{From: s.machine.From(ActionEditFields)}
	return s.update(ctx, session, id, ActionEditFields, guard, Changes{RawFootageURL: &url})
}

// GenerateBrief asks the brief writer for an editing brief and stores it on the project
func (s *Service) GenerateBrief(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	if s.briefs == nil {
		return nil, errs.NewServiceUnavailableError("brief writer")
	}
	project, err := s.checked(ctx, session, id, ActionEditFields)
	if err != nil {
		return nil, err
	}

	brief, err := s.briefs.WriteBrief(ctx, project)
	if err != nil {
		return nil, err
	}
	return s.SetBrief(ctx, session, id, brief)
}

// SetBrief stores an editing brief on a draft or submitted project
func (s *Service) SetBrief(ctx context.Context, session Session, id uuid.UUID, brief string) (*models.Project, error) {
	if _, err := s.checked(ctx, session, id, ActionEditFields); err != nil {
		return nil, err
	}
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, errs.NewMissingRequiredFieldError("ai_brief")
	}

	guard := Guard{From: s.machine.From(ActionEditFields)}
	return s.update(ctx, session, id, ActionEditFields, guard, Changes{AIBrief: &brief})
}

// Transitions

func (s *Service) SubmitProject(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	project, err := s.checked(ctx, session, id, ActionSubmit)
	if err != nil {
		return nil, err
	}
	if err := requireSubmittable(project); err != nil {
		return nil, err
	}
	guard := Guard{From: s.machine.From(ActionSubmit), Submittable: true}
	return s.transition(ctx, session, id, ActionSubmit, guard, Changes{})
}

// ClaimProject assigns the project to the calling editor. Of several concurrent claims
// exactly one wins; the others fail with errs.ErrAlreadyClaimed.
func (s *Service) ClaimProject(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	if _, err := s.checked(ctx, session, id, ActionClaim); err != nil {
		return nil, err
	}

	editorID := session.UserID
	guard := Guard{From: s.machine.From(ActionClaim), Unassigned: true}
	project, err := s.transition(ctx, session, id, ActionClaim, guard, Changes{EditorID: &editorID})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, EventClaimed, project, project.CreatorID, nil)
	return project, nil
}

func (s *Service) ApproveProject(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	if _, err := s.checked(ctx, session, id, ActionApprove); err != nil {
		return nil, err
	}
	project, err := s.transition(ctx, session, id, ActionApprove, Guard{From: s.machine.From(ActionApprove)}, Changes{})
	if err != nil {
		return nil, err
	}

	if project.EditorID != nil {
		s.notify(ctx, EventApproved, project, *project.EditorID, nil)
	}
	return project, nil
}

func (s *Service) CancelProject(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	if _, err := s.checked(ctx, session, id, ActionCancel); err != nil {
		return nil, err
	}
	project, err := s.transition(ctx, session, id, ActionCancel, Guard{From: s.machine.From(ActionCancel)}, Changes{})
	if err != nil {
		return nil, err
	}

	if project.EditorID != nil {
		s.notify(ctx, EventCancelled, project, *project.EditorID, nil)
	}
	return project, nil
}

// DeleteProject hard-deletes a draft or cancelled project with its versions and comments
func (s *Service) DeleteProject(ctx context.Context, session Session, id uuid.UUID) error {
	if _, err := s.checked(ctx, session, id, ActionDelete); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id, Guard{From: s.machine.From(ActionDelete)}); err != nil {
		if errs.IsStaleError(err) {
			return errs.NewStaleStateError(string(ActionDelete), err)
		}
		return err
	}

	s.logger.Info().Str("projectID", id.String()).Str("actorID", session.UserID.String()).Msg("project deleted")
	return nil
}

// Logs

// AppendVersion adds the next numbered version. Numbering and the resulting status
// change are left to the store so they happen atomically per project.
func (s *Service) AppendVersion(ctx context.Context, session Session, id uuid.UUID, in VersionInput) (*models.ProjectVersion, error) {
	if _, err := s.checked(ctx, session, id, ActionSubmitVersion); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}

	editorID := session.UserID
	guard := Guard{From: s.machine.From(ActionSubmitVersion), EditorID: &editorID}
	version := &models.ProjectVersion{
		ID:          uuid.New(),
		ProjectID:   id,
		VideoURL:    in.VideoURL,
		EditorNotes: in.EditorNotes,
	}

	project, err := s.store.AppendVersion(ctx, guard, version, s.machine.Policy().StatusAfter)
	if err != nil {
		if errs.IsStaleError(err) {
			return nil, errs.NewStaleStateError(string(ActionSubmitVersion), err)
		}
		return nil, err
	}

	s.logger.Info().
		Str("projectID", id.String()).
		Int("versionNumber", version.VersionNumber).
		Str("status", string(project.Status)).
		Msg("version appended")

	s.notify(ctx, EventVersionSubmitted, project, project.CreatorID, version)
	return version, nil
}

func (s *Service) AppendComment(ctx context.Context, session Session, id uuid.UUID, in CommentInput) (*models.Comment, error) {
	if _, err := s.checked(ctx, session, id, ActionComment); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateStruct(s.validate, &in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		ProjectID: id,
		UserID:    session.UserID,
		Content:   in.Content,
		Timestamp: in.Timestamp,
	}
	if err := s.store.AppendComment(ctx, Guard{From: s.machine.From(ActionComment)}, comment); err != nil {
		if errs.IsStaleError(err) {
			return nil, errs.NewStaleStateError(string(ActionComment), err)
		}
		return nil, err
	}
	return comment, nil
}

// Reads

func (s *Service) GetProject(ctx context.Context, session Session, id uuid.UUID) (*ProjectDetail, error) {
	project, err := s.viewable(ctx, session, id)
	if err != nil {
		return nil, err
	}

	detail := &ProjectDetail{
		Project: project,
		Actions: s.machine.Allowed(project, session),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		versions, err := s.store.FindVersions(gctx, id)
		detail.Versions = versions
		return err
	})
	g.Go(func() error {
		comments, err := s.store.FindComments(gctx, id)
		detail.Comments = comments
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *Service) ListVersions(ctx context.Context, session Session, id uuid.UUID) ([]*models.ProjectVersion, error) {
	if _, err := s.viewable(ctx, session, id); err != nil {
		return nil, err
	}
	return s.store.FindVersions(ctx, id)
}

func (s *Service) ListComments(ctx context.Context, session Session, id uuid.UUID) ([]*models.Comment, error) {
	if _, err := s.viewable(ctx, session, id); err != nil {
		return nil, err
	}
	return s.store.FindComments(ctx, id)
}

// ListProjects returns the projects the session owns (creators) or holds (editors)
func (s *Service) ListProjects(ctx context.Context, session Session, filter ProjectFilter) ([]*models.Project, error) {
	userID := session.UserID
	filter.CreatorID, filter.EditorID, filter.Unassigned = nil, nil, false
	if session.IsEditor() {
		filter.EditorID = &userID
	} else {
		filter.CreatorID = &userID
	}
	filter.SortBy = SortByUpdated
	return s.store.FindProjects(ctx, filter)
}

// ListAvailable returns submitted projects no editor has claimed yet
func (s *Service) ListAvailable(ctx context.Context, session Session) ([]*models.Project, error) {
	if !session.IsEditor() {
		return nil, errs.NewInsufficientRoleError(string(models.RoleEditor))
	}
	status := models.StatusSubmitted
	return s.store.FindProjects(ctx, ProjectFilter{Status: &status, Unassigned: true, SortBy: SortByCreated})
}

func (s *Service) Dashboard(ctx context.Context, session Session) (*DashboardStats, error) {
	projects, err := s.ListProjects(ctx, session, ProjectFilter{})
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Role:     session.Role,
		Total:    len(projects),
		ByStatus: make(map[models.ProjectStatus]int, len(models.AllStatuses)),
	}
	for _, status := range models.AllStatuses {
		stats.ByStatus[status] = 0
	}
	for _, p := range projects {
		stats.ByStatus[p.Status]++
	}
	stats.Active = stats.ByStatus[models.StatusInProgress] + stats.ByStatus[models.StatusInRevision]
	stats.Completed = stats.ByStatus[models.StatusCompleted]

	if session.IsEditor() {
		available, err := s.ListAvailable(ctx, session)
		if err != nil {
			return nil, err
		}
		stats.Available = len(available)
	}
	return stats, nil
}

// Authorize reports whether the session may perform the action on the project right now,
// without changing anything. Handlers use it before doing expensive work such as uploads.
func (s *Service) Authorize(ctx context.Context, session Session, id uuid.UUID, action Action) error {
	_, err := s.checked(ctx, session, id, action)
	return err
}

// helpers

// checked loads the project and runs the transition table for the action
func (s *Service) checked(ctx context.Context, session Session, id uuid.UUID, action Action) (*models.Project, error) {
	project, err := s.store.FindProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Check(project, session, action); err != nil {
		s.logger.Debug().
			Err(err).
			Str("projectID", id.String()).
			Str("action", string(action)).
			Str("status", string(project.Status)).
			Msg("action rejected")
		return nil, err
	}
	return project, nil
}

func (s *Service) viewable(ctx context.Context, session Session, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.FindProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanView(project) {
		return nil, errs.NewNotParticipantError("view")
	}
	return project, nil
}

// transition moves the project to the action's target status under the guard
func (s *Service) transition(ctx context.Context, session Session, id uuid.UUID, action Action, guard Guard, changes Changes) (*models.Project, error) {
	target := s.machine.Target(action)
	changes.Status = &target

	project, err := s.update(ctx, session, id, action, guard, changes)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("projectID", id.String()).
		Str("action", string(action)).
		Str("actorID", session.UserID.String()).
		Str("status", string(project.Status)).
		Msg("project transitioned")
	return project, nil
}

func (s *Service) update(ctx context.Context, session Session, id uuid.UUID, action Action, guard Guard, changes Changes) (*models.Project, error) {
	project, err := s.store.UpdateProject(ctx, id, guard, changes)
	if err == nil {
		return project, nil
	}
	if !errs.IsStaleError(err) {
		return nil, err
	}

	if current, findErr := s.store.FindProject(ctx, id); findErr == nil {
		switch {
		case action == ActionClaim && current.EditorID != nil:
			return nil, errs.NewAlreadyClaimedError()
		case action == ActionSubmit && current.Status == models.StatusDraft:
			// fields were blanked after the read
			if err := requireSubmittable(current); err != nil {
				return nil, err
			}
		}
	}
	s.logger.Info().Str("projectID", id.String()).Str("action", string(action)).Str("actorID", session.UserID.String()).Msg("lost race on guarded update")
	return nil, errs.NewStaleStateError(string(action), err)
}

func (s *Service) notify(ctx context.Context, eventType EventType, project *models.Project, recipientID uuid.UUID, version *models.ProjectVersion) {
	recipient, err := s.store.FindProfile(ctx, recipientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("recipientID", recipientID.String()).Str("event", string(eventType)).Msg("skipping notification, recipient not found")
		return
	}

	event := Event{Type: eventType, Project: project, Version: version, Recipient: recipient}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("projectID", project.ID.String()).Str("event", string(eventType)).Msg("failed to deliver notification")
	}
}
