package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]EventType, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}

type stubBriefWriter struct {
	brief string
	err   error
}

func (b stubBriefWriter) WriteBrief(context.Context, *models.Project) (string, error) {
	return b.brief, b.err
}

type harness struct {
	ctx      context.Context
	svc      *Service
	store    *MemoryStore
	notifier *recordingNotifier
	creator  Session
	editor   Session
	rival    Session
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		ctx:      context.Background(),
		store:    NewMemoryStore(),
		notifier: &recordingNotifier{},
	}
	opts = append([]Option{WithNotifier(h.notifier), WithLogger(zerolog.Nop())}, opts...)
	h.svc = NewService(h.store, opts...)

	h.creator = h.signUp(t, "creator@example.com", models.RoleCreator)
	h.editor = h.signUp(t, "editor@example.com", models.RoleEditor)
	h.rival = h.signUp(t, "rival@example.com", models.RoleEditor)
	return h
}

func (h *harness) signUp(t *testing.T, email string, role models.Role) Session {
	t.Helper()
	userID := uuid.New()
	_, err := h.svc.CreateProfile(h.ctx, userID, email, ProfileInput{Role: role})
	require.NoError(t, err)
	session, err := h.svc.ResolveSession(h.ctx, userID)
	require.NoError(t, err)
	return session
}

func validProjectInput() ProjectInput {
	return ProjectInput{
		Title:               "Summer trip reel",
		Description:         "Forty minutes of beach footage from our trip",
		RawFootageURL:       "https://storage.example.com/project-files/raw.mp4",
		EditingInstructions: "Cut to the beat, keep it under thirty seconds",
		ReelType:            models.ReelInstagram,
		PricingTier:         models.TierPro,
	}
}

func (h *harness) draft(t *testing.T) *models.Project {
	t.Helper()
	project, err := h.svc.CreateProject(h.ctx, h.creator, validProjectInput())
	require.NoError(t, err)
	return project
}

func (h *harness) submitted(t *testing.T) *models.Project {
	t.Helper()
	project, err := h.svc.SubmitProject(h.ctx, h.creator, h.draft(t).ID)
	require.NoError(t, err)
	return project
}

func (h *harness) claimed(t *testing.T) *models.Project {
	t.Helper()
	project, err := h.svc.ClaimProject(h.ctx, h.editor, h.submitted(t).ID)
	require.NoError(t, err)
	return project
}

func (h *harness) deliver(t *testing.T, id uuid.UUID) *models.ProjectVersion {
	t.Helper()
	version, err := h.svc.AppendVersion(h.ctx, h.editor, id, VersionInput{VideoURL: "https://storage.example.com/edited-videos/cut.mp4"})
	require.NoError(t, err)
	return version
}

func (h *harness) status(t *testing.T, id uuid.UUID) models.ProjectStatus {
	t.Helper()
	project, err := h.store.FindProject(h.ctx, id)
	require.NoError(t, err)
	return project.Status
}

func TestFullLifecycle(t *testing.T) {
	h := newHarness(t)

	project := h.draft(t)
	assert.Equal(t, models.StatusDraft, project.Status)
	assert.Nil(t, project.EditorID)

	project, err := h.svc.SubmitProject(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, project.Status)

	project, err = h.svc.ClaimProject(h.ctx, h.editor, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, project.Status)
	require.NotNil(t, project.EditorID)
	assert.Equal(t, h.editor.UserID, *project.EditorID)

	first := h.deliver(t, project.ID)
	assert.Equal(t, 1, first.VersionNumber)
	assert.Equal(t, models.StatusInRevision, h.status(t, project.ID))

	second := h.deliver(t, project.ID)
	assert.Equal(t, 2, second.VersionNumber)

	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{Content: "Tighten the intro"})
	require.NoError(t, err)

	project, err = h.svc.ApproveProject(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, project.Status)

	assert.Equal(t,
		[]EventType{EventClaimed, EventVersionSubmitted, EventVersionSubmitted, EventApproved},
		h.notifier.types())

	detail, err := h.svc.GetProject(h.ctx, h.editor, project.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Versions, 2)
	assert.Len(t, detail.Comments, 1)
	assert.Empty(t, detail.Actions)
}

func TestCreateProject(t *testing.T) {
	h := newHarness(t)

	t.Run("editors cannot create projects", func(t *testing.T) {
		_, err := h.svc.CreateProject(h.ctx, h.editor, validProjectInput())
		require.Error(t, err)
		assert.True(t, errs.IsForbidden(err))
	})

	t.Run("custom tier needs a price", func(t *testing.T) {
		in := validProjectInput()
		in.PricingTier = models.TierCustom
		_, err := h.svc.CreateProject(h.ctx, h.creator, in)
		require.Error(t, err)
		assert.True(t, errs.IsValidationError(err))

		price := 250.0
		in.CustomPrice = &price
		project, err := h.svc.CreateProject(h.ctx, h.creator, in)
		require.NoError(t, err)
		assert.Equal(t, price, *project.CustomPrice)
	})

	t.Run("price only with custom tier", func(t *testing.T) {
		in := validProjectInput()
		price := 10.0
		in.CustomPrice = &price
		_, err := h.svc.CreateProject(h.ctx, h.creator, in)
		require.Error(t, err)
		assert.True(t, errs.IsValidationError(err))
	})

	t.Run("short title", func(t *testing.T) {
		in := validProjectInput()
		in.Title = "  a "
		_, err := h.svc.CreateProject(h.ctx, h.creator, in)
		require.Error(t, err)
		var apiErr *errs.ApiErr
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "title", apiErr.Field)
	})

	t.Run("drafts may be incomplete", func(t *testing.T) {
		in := validProjectInput()
		in.Description = ""
		in.RawFootageURL = ""
		project, err := h.svc.CreateProject(h.ctx, h.creator, in)
		require.NoError(t, err)

		_, err = h.svc.SubmitProject(h.ctx, h.creator, project.ID)
		require.Error(t, err)
		assert.True(t, errs.IsValidationError(err))
		assert.Equal(t, models.StatusDraft, h.status(t, project.ID))
	})
}

func TestUpdateProject(t *testing.T) {
	h := newHarness(t)

	project := h.submitted(t)
	in := validProjectInput()
	in.Title = "Winter trip reel"
	updated, err := h.svc.UpdateProject(h.ctx, h.creator, project.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Winter trip reel", updated.Title)
	assert.Equal(t, models.StatusSubmitted, updated.Status)

	// a submitted project must stay complete
	in.EditingInstructions = ""
	_, err = h.svc.UpdateProject(h.ctx, h.creator, project.ID, in)
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	claimed := h.claimed(t)
	_, err = h.svc.UpdateProject(h.ctx, h.creator, claimed.ID, validProjectInput())
	require.Error(t, err)
	assert.True(t, errs.IsInvalidStateError(err))
}

func TestClaimRace(t *testing.T) {
	h := newHarness(t)
	project := h.submitted(t)

	editors := []Session{h.editor, h.rival}
	for i := 0; i < 8; i++ {
		editors = append(editors, h.signUp(t, "extra@example.com", models.RoleEditor))
	}

	var wins, claimedErrs atomic.Int32
	var wg sync.WaitGroup
	for _, editor := range editors {
		wg.Add(1)
		go func(s Session) {
			defer wg.Done()
			_, err := h.svc.ClaimProject(h.ctx, s, project.ID)
			switch {
			case err == nil:
				wins.Add(1)
			case errs.IsAlreadyClaimedError(err):
				claimedErrs.Add(1)
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(editor)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(len(editors)-1), claimedErrs.Load())

	stored, err := h.store.FindProject(h.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	assert.NotNil(t, stored.EditorID)
}

func TestAppendVersionConcurrentNumbering(t *testing.T) {
	h := newHarness(t)
	project := h.claimed(t)

	const n = 20
	numbers := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := h.svc.AppendVersion(h.ctx, h.editor, project.ID, VersionInput{VideoURL: "https://cdn.example.com/v.mp4"})
			if assert.NoError(t, err) {
				numbers <- v.VersionNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate version number %d", number)
		seen[number] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "missing version number %d", i)
	}

	versions, err := h.svc.ListVersions(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	require.Len(t, versions, n)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}
}

func TestAppendVersionRules(t *testing.T) {
	h := newHarness(t)
	project := h.claimed(t)

	t.Run("only the assigned editor", func(t *testing.T) {
		_, err := h.svc.AppendVersion(h.ctx, h.rival, project.ID, VersionInput{VideoURL: "https://cdn.example.com/v.mp4"})
		require.Error(t, err)
		assert.True(t, errs.IsForbidden(err))
	})

	t.Run("video url must be a url", func(t *testing.T) {
		_, err := h.svc.AppendVersion(h.ctx, h.editor, project.ID, VersionInput{VideoURL: "not a url"})
		require.Error(t, err)
		assert.True(t, errs.IsValidationError(err))
	})

	t.Run("blank notes are dropped", func(t *testing.T) {
		notes := "   "
		v, err := h.svc.AppendVersion(h.ctx, h.editor, project.ID, VersionInput{VideoURL: "https://cdn.example.com/v.mp4", EditorNotes: &notes})
		require.NoError(t, err)
		assert.Nil(t, v.EditorNotes)
	})

	t.Run("no versions after approval", func(t *testing.T) {
		_, err := h.svc.ApproveProject(h.ctx, h.creator, project.ID)
		require.NoError(t, err)
		_, err = h.svc.AppendVersion(h.ctx, h.editor, project.ID, VersionInput{VideoURL: "https://cdn.example.com/v.mp4"})
		require.Error(t, err)
		assert.True(t, errs.IsInvalidStateError(err))
	})
}

func TestReviewFromSecondVersion(t *testing.T) {
	h := newHarness(t, WithVersionPolicy(ReviewFromSecondVersion))
	project := h.claimed(t)

	h.deliver(t, project.ID)
	assert.Equal(t, models.StatusInProgress, h.status(t, project.ID))

	_, err := h.svc.ApproveProject(h.ctx, h.creator, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidStateError(err))

	h.deliver(t, project.ID)
	assert.Equal(t, models.StatusInRevision, h.status(t, project.ID))
}

func TestCancelAndDelete(t *testing.T) {
	h := newHarness(t)
	project := h.claimed(t)
	h.deliver(t, project.ID)

	err := h.svc.DeleteProject(h.ctx, h.creator, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidStateError(err))

	cancelled, err := h.svc.CancelProject(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Contains(t, h.notifier.types(), EventCancelled)

	_, err = h.svc.CancelProject(h.ctx, h.creator, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidStateError(err))

	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{Content: "too late"})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidStateError(err))

	require.NoError(t, h.svc.DeleteProject(h.ctx, h.creator, project.ID))

	_, err = h.store.FindProject(h.ctx, project.ID)
	assert.True(t, errs.IsNotFound(err))
	versions, err := h.store.FindVersions(h.ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestCancelWithoutEditorSkipsNotification(t *testing.T) {
	h := newHarness(t)
	project := h.submitted(t)

	_, err := h.svc.CancelProject(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	assert.Empty(t, h.notifier.types())
}

func TestNotificationFailureKeepsTransition(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("smtp down")

	project := h.claimed(t)
	assert.Equal(t, models.StatusInProgress, project.Status)
	assert.Equal(t, []EventType{EventClaimed}, h.notifier.types())
}

func TestComments(t *testing.T) {
	h := newHarness(t)
	project := h.claimed(t)

	at := 12.5
	_, err := h.svc.AppendComment(h.ctx, h.editor, project.ID, CommentInput{Content: "First cut coming", Timestamp: &at})
	require.NoError(t, err)
	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{Content: "Great"})
	require.NoError(t, err)

	_, err = h.svc.AppendComment(h.ctx, h.rival, project.ID, CommentInput{Content: "Hi"})
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))

	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{Content: "   "})
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	negative := -1.0
	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{Content: "x", Timestamp: &negative})
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	comments, err := h.svc.ListComments(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "First cut coming", comments[0].Content)
	assert.Equal(t, at, *comments[0].Timestamp)
	assert.Equal(t, "Great", comments[1].Content)
}

func TestVisibility(t *testing.T) {
	h := newHarness(t)

	draft := h.draft(t)
	_, err := h.svc.GetProject(h.ctx, h.editor, draft.ID)
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))

	open := h.submitted(t)
	detail, err := h.svc.GetProject(h.ctx, h.rival, open.ID)
	require.NoError(t, err)
	assert.Equal(t, []Action{ActionClaim}, detail.Actions)

	_, err = h.svc.ClaimProject(h.ctx, h.editor, open.ID)
	require.NoError(t, err)
	_, err = h.svc.GetProject(h.ctx, h.rival, open.ID)
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))

	_, err = h.svc.GetProject(h.ctx, h.creator, uuid.New())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestListingsAndDashboard(t *testing.T) {
	h := newHarness(t)

	h.draft(t)
	open := h.submitted(t)
	held := h.claimed(t)
	h.deliver(t, held.ID)

	mine, err := h.svc.ListProjects(h.ctx, h.creator, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	status := models.StatusSubmitted
	submitted, err := h.svc.ListProjects(h.ctx, h.creator, ProjectFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, open.ID, submitted[0].ID)

	available, err := h.svc.ListAvailable(h.ctx, h.rival)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, open.ID, available[0].ID)

	_, err = h.svc.ListAvailable(h.ctx, h.creator)
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))

	// the filter cannot be used to read other users' projects
	otherCreator := h.creator.UserID
	held2, err := h.svc.ListProjects(h.ctx, h.editor, ProjectFilter{CreatorID: &otherCreator})
	require.NoError(t, err)
	require.Len(t, held2, 1)
	assert.Equal(t, held.ID, held2[0].ID)

	stats, err := h.svc.Dashboard(h.ctx, h.creator)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusDraft])
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 0, stats.Completed)
	assert.Equal(t, 0, stats.Available)

	stats, err = h.svc.Dashboard(h.ctx, h.editor)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusInRevision])
	assert.Equal(t, 1, stats.Available)
}

func TestProfiles(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateProfile(h.ctx, h.creator.UserID, "creator@example.com", ProfileInput{Role: models.RoleCreator})
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(err))

	_, err = h.svc.CreateProfile(h.ctx, uuid.New(), "x@example.com", ProfileInput{})
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	_, err = h.svc.ResolveSession(h.ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, errs.IsMissingProfileError(err))

	bio := "I cut reels"
	profile, err := h.svc.UpdateProfile(h.ctx, h.editor, ProfileInput{
		Bio:           &bio,
		Skillset:      []string{"color grading"},
		PortfolioURLs: []string{"https://vimeo.com/me"},
		Preferences:   []byte(`{"notify":true}`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, profile.Role)
	assert.Equal(t, []string{"color grading"}, []string(profile.Skillset))

	_, err = h.svc.UpdateProfile(h.ctx, h.editor, ProfileInput{Role: models.RoleCreator})
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	_, err = h.svc.UpdateProfile(h.ctx, h.editor, ProfileInput{Preferences: []byte(`[1,2]`)})
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))
}

func TestGenerateBrief(t *testing.T) {
	h := newHarness(t)
	project := h.draft(t)

	_, err := h.svc.GenerateBrief(h.ctx, h.creator, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsServiceUnavailableError(err))

	h = newHarness(t, WithBriefWriter(stubBriefWriter{brief: "Fast cuts, upbeat music."}))
	project = h.draft(t)
	updated, err := h.svc.GenerateBrief(h.ctx, h.creator, project.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AIBrief)
	assert.Equal(t, "Fast cuts, upbeat music.", *updated.AIBrief)

	_, err = h.svc.GenerateBrief(h.ctx, h.editor, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))
}

func TestSetRawFootage(t *testing.T) {
	h := newHarness(t)
	project := h.draft(t)

	updated, err := h.svc.SetRawFootage(h.ctx, h.creator, project.ID, "https://storage.example.com/project-files/new.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/project-files/new.mp4", updated.RawFootageURL)

	_, err = h.svc.SetRawFootage(h.ctx, h.creator, project.ID, "nope")
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))
}

func TestStaleWriteBecomesConflict(t *testing.T) {
	h := newHarness(t)
	project := h.submitted(t)

	// simulate a concurrent cancel landing between the read and the guarded write
	store := &interleavingStore{MemoryStore: h.store, before: func() {
		_, err := h.store.UpdateProject(h.ctx, project.ID, Guard{}, Changes{Status: ptr(models.StatusCancelled)})
		require.NoError(t, err)
	}}
	svc := NewService(store, WithLogger(zerolog.Nop()))

	_, err := svc.ClaimProject(h.ctx, h.editor, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsStaleError(err))
	assert.True(t, errs.IsConflict(err))
	assert.False(t, errs.IsAlreadyClaimedError(err))
}

func TestSubmitRechecksFieldsAtWrite(t *testing.T) {
	h := newHarness(t)
	project := h.draft(t)

	// the creator empties the draft between submit's read and its guarded write
	store := &interleavingStore{MemoryStore: h.store, before: func() {
		in := validProjectInput()
		in.Description = ""
		in.RawFootageURL = ""
		_, err := h.svc.UpdateProject(h.ctx, h.creator, project.ID, in)
		require.NoError(t, err)
	}}
	svc := NewService(store, WithLogger(zerolog.Nop()))

	_, err := svc.SubmitProject(h.ctx, h.creator, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	current, err := h.store.FindProject(h.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, current.Status)
	assert.Empty(t, current.Description)
}

func TestOutsidersAreRejectedBeforeInputChecks(t *testing.T) {
	h := newHarness(t)
	project := h.claimed(t)

	_, err := h.svc.AppendVersion(h.ctx, h.rival, project.ID, VersionInput{VideoURL: "not a url"})
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))
	assert.False(t, errs.IsValidationError(err))

	_, err = h.svc.AppendComment(h.ctx, h.rival, project.ID, CommentInput{})
	require.Error(t, err)
	assert.True(t, errs.IsForbidden(err))
	assert.False(t, errs.IsValidationError(err))

	// participants still get field errors
	_, err = h.svc.AppendComment(h.ctx, h.creator, project.ID, CommentInput{})
	assert.True(t, errs.IsValidationError(err))
}

type interleavingStore struct {
	*MemoryStore
	before func()
	once   sync.Once
}

func (s *interleavingStore) UpdateProject(ctx context.Context, id uuid.UUID, guard Guard, changes Changes) (*models.Project, error) {
	s.once.Do(s.before)
	return s.MemoryStore.UpdateProject(ctx, id, guard, changes)
}

func ptr[T any](v T) *T {
	return &v
}
