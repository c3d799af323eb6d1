package lifecycle

import (
	"context"

	"github.com/rpupo63/reel-marketplace-backend/models"
)

type EventType string

const (
	EventClaimed          EventType = "project_claimed"
	EventVersionSubmitted EventType = "version_submitted"
	EventApproved         EventType = "project_approved"
	EventCancelled        EventType = "project_cancelled"
)

// Event describes a committed lifecycle change and the participant who should hear about it
type Event struct {
	Type      EventType
	Project   *models.Project
	Version   *models.ProjectVersion
	Recipient *models.Profile
}

// Notifier delivers lifecycle events. Delivery failures never undo the change.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error { return nil }

// BriefWriter turns a project's fields into a short brief for editors
type BriefWriter interface {
	WriteBrief(ctx context.Context, project *models.Project) (string, error)
}
