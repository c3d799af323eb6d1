package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDatabase connects to TEST_DATABASE_DSN and applies the migrations.
// Tests are skipped when no database is configured.
func openTestDatabase(t *testing.T) Database {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, ConnOptions{DSN: dsn, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db, zerolog.Nop()))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func TestDatabaseLifecycle(t *testing.T) {
	store := openTestDatabase(t)
	ctx := context.Background()
	svc := lifecycle.NewService(store, lifecycle.WithLogger(zerolog.Nop()))

	signUp := func(role models.Role) lifecycle.Session {
		id := uuid.New()
		_, err := svc.CreateProfile(ctx, id, id.String()+"@example.com", lifecycle.ProfileInput{Role: role})
		require.NoError(t, err)
		return lifecycle.Session{UserID: id, Role: role}
	}
	creator := signUp(models.RoleCreator)
	editors := []lifecycle.Session{signUp(models.RoleEditor), signUp(models.RoleEditor), signUp(models.RoleEditor)}

	project, err := svc.CreateProject(ctx, creator, lifecycle.ProjectInput{
		Title:               "Launch teaser",
		Description:         "Product launch footage from the event",
		RawFootageURL:       "https://storage.example.com/project-files/launch.mp4",
		EditingInstructions: "Fast cuts with captions on every line",
		ReelType:            models.ReelTiktok,
		PricingTier:         models.TierBasic,
	})
	require.NoError(t, err)
	_, err = svc.SubmitProject(ctx, creator, project.ID)
	require.NoError(t, err)

	t.Run("exactly one claim wins", func(t *testing.T) {
		var wg sync.WaitGroup
		results := make(chan error, len(editors))
		for _, editor := range editors {
			wg.Add(1)
			go func(s lifecycle.Session) {
				defer wg.Done()
				_, err := svc.ClaimProject(ctx, s, project.ID)
				results <- err
			}(editor)
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, errs.IsAlreadyClaimedError(err), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, wins)
	})

	stored, err := store.FindProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EditorID)
	editor := lifecycle.Session{UserID: *stored.EditorID, Role: models.RoleEditor}

	t.Run("versions are numbered without gaps", func(t *testing.T) {
		const n = 10
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.AppendVersion(ctx, editor, project.ID, lifecycle.VersionInput{VideoURL: "https://cdn.example.com/cut.mp4"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		versions, err := store.FindVersions(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, versions, n)
		for i, v := range versions {
			assert.Equal(t, i+1, v.VersionNumber)
		}
	})

	t.Run("guarded update reports stale state", func(t *testing.T) {
		_, err := store.UpdateProject(ctx, project.ID, lifecycle.Guard{From: []models.ProjectStatus{models.StatusDraft}}, lifecycle.Changes{})
		require.Error(t, err)
		assert.True(t, errs.IsStaleError(err))

		_, err = store.UpdateProject(ctx, uuid.New(), lifecycle.Guard{}, lifecycle.Changes{})
		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("submit guard rejects a blank draft", func(t *testing.T) {
		draft, err := svc.CreateProject(ctx, creator, lifecycle.ProjectInput{
			Title:       "Unfinished teaser",
			ReelType:    models.ReelTiktok,
			PricingTier: models.TierBasic,
		})
		require.NoError(t, err)

		submitted := models.StatusSubmitted
		guard := lifecycle.Guard{From: []models.ProjectStatus{models.StatusDraft}, Submittable: true}
		_, err = store.UpdateProject(ctx, draft.ID, guard, lifecycle.Changes{Status: &submitted})
		require.Error(t, err)
		assert.True(t, errs.IsStaleError(err))

		current, err := store.FindProject(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, current.Status)
	})

	t.Run("cancel then delete cascades", func(t *testing.T) {
		_, err := svc.AppendComment(ctx, creator, project.ID, lifecycle.CommentInput{Content: "Looks good so far"})
		require.NoError(t, err)
		_, err = svc.CancelProject(ctx, creator, project.ID)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteProject(ctx, creator, project.ID))

		versions, err := store.FindVersions(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, versions)
		comments, err := store.FindComments(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}
