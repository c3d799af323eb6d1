package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("find", "project", nil))
	assert.True(t, errs.IsNotFound(translate("find", "project", gorm.ErrRecordNotFound)))
	assert.True(t, errs.IsAlreadyExists(translate("create", "profile", gorm.ErrDuplicatedKey)))
	assert.True(t, errs.IsValidationError(translate("create", "project", gorm.ErrForeignKeyViolated)))
	assert.True(t, errs.IsStaleError(translate("update", "project", fmt.Errorf("tx: %w", errs.ErrStale))))
	assert.True(t, errs.IsStoreUnavailableError(translate("find", "project", context.DeadlineExceeded)))
	assert.True(t, errs.IsStoreUnavailableError(translate("find", "project", errors.New("dial tcp: connection refused"))))

	notFound := errs.NewNotFound("project")
	assert.Same(t, notFound, translate("lock", "project", notFound))
}

func TestStatusValues(t *testing.T) {
	assert.Equal(t,
		[]string{"in_progress", "in_revision"},
		statusValues([]models.ProjectStatus{models.StatusInProgress, models.StatusInRevision}))
	assert.Empty(t, statusValues(lifecycle.Guard{}.From))
}
