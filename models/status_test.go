package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectStatus(t *testing.T) {
	for _, status := range AllStatuses {
		parsed, err := ParseProjectStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := ParseProjectStatus("shipped")
	assert.Error(t, err)
	_, err = ParseProjectStatus("")
	assert.Error(t, err)
}

func TestTerminal(t *testing.T) {
	terminal := map[ProjectStatus]bool{StatusCompleted: true, StatusCancelled: true}
	for _, status := range AllStatuses {
		assert.Equal(t, terminal[status], status.Terminal(), status)
	}
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, RoleCreator.Valid())
	assert.True(t, RoleEditor.Valid())
	assert.False(t, Role("admin").Valid())

	assert.True(t, ReelYoutubeShorts.Valid())
	assert.False(t, ReelType("vine").Valid())

	assert.True(t, TierCustom.Valid())
	assert.False(t, PricingTier("free").Valid())
}

func TestProjectAssignedTo(t *testing.T) {
	editorID := uuid.New()
	p := &Project{}
	assert.False(t, p.AssignedTo(editorID))

	p.EditorID = &editorID
	assert.True(t, p.AssignedTo(editorID))
	assert.False(t, p.AssignedTo(uuid.New()))
}
