package lifecycle

import (
	"fmt"
	"slices"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
)

// Action is a request to change a project, either a status transition or a gated append
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionClaim         Action = "claim"
	ActionSubmitVersion Action = "submit_version"
	ActionApprove       Action = "approve"
	ActionCancel        Action = "cancel"
	ActionDelete        Action = "delete"
	ActionEditFields    Action = "edit_fields"
	ActionComment       Action = "comment"
)

// actionOrder is the order Allowed reports actions in
var actionOrder = []Action{
	ActionEditFields,
	ActionSubmit,
	ActionClaim,
	ActionSubmitVersion,
	ActionApprove,
	ActionCancel,
	ActionDelete,
	ActionComment,
}

type actor int

const (
	actorOwner            actor = iota // the project's creator
	actorUnassignedEditor              // any editor while nobody holds the project
	actorAssignedEditor
	actorParticipant // owner or assigned editor
)

type rule struct {
	actor actor
	from  []models.ProjectStatus
	// to is empty when the status does not change or is decided elsewhere
	to models.ProjectStatus
}

var nonTerminal = []models.ProjectStatus{
	models.StatusDraft,
	models.StatusSubmitted,
	models.StatusInProgress,
	models.StatusInRevision,
}

var rules = map[Action]rule{
	ActionSubmit: {
		actor: actorOwner,
		from:  []models.ProjectStatus{models.StatusDraft},
		to:    models.StatusSubmitted,
	},
	ActionClaim: {
		actor: actorUnassignedEditor,
		from:  []models.ProjectStatus{models.StatusSubmitted},
		to:    models.StatusInProgress,
	},
	ActionSubmitVersion: {
		actor: actorAssignedEditor,
		from:  []models.ProjectStatus{models.StatusInProgress, models.StatusInRevision},
	},
	ActionApprove: {
		actor: actorOwner,
		from:  []models.ProjectStatus{models.StatusInRevision},
		to:    models.StatusCompleted,
	},
	ActionCancel: {
		actor: actorOwner,
		from:  []models.ProjectStatus{models.StatusSubmitted, models.StatusInProgress, models.StatusInRevision},
		to:    models.StatusCancelled,
	},
	ActionDelete: {
		actor: actorOwner,
		from:  []models.ProjectStatus{models.StatusDraft, models.StatusCancelled},
	},
	ActionEditFields: {
		actor: actorOwner,
		from:  []models.ProjectStatus{models.StatusDraft, models.StatusSubmitted},
	},
	ActionComment: {
		actor: actorParticipant,
		from:  nonTerminal,
	},
}

// VersionPolicy decides the status a project moves to when a version is appended
type VersionPolicy string

const (
	// ReviewEveryVersion sends every delivered version to the creator for review
	ReviewEveryVersion VersionPolicy = "immediate"
	// ReviewFromSecondVersion keeps the first version in progress and reviews from the second on
	ReviewFromSecondVersion VersionPolicy = "second"
)

func ParseVersionPolicy(raw string) (VersionPolicy, error) {
	switch VersionPolicy(raw) {
	case "", ReviewEveryVersion:
		return ReviewEveryVersion, nil
	case ReviewFromSecondVersion:
		return ReviewFromSecondVersion, nil
	}
	return "", fmt.Errorf("unknown version review policy %q", raw)
}

// StatusAfter returns the status of a project right after versionNumber was appended
func (p VersionPolicy) StatusAfter(versionNumber int) models.ProjectStatus {
	if p == ReviewFromSecondVersion && versionNumber <= 1 {
		return models.StatusInProgress
	}
	return models.StatusInRevision
}

// Machine is the single authority on who may do what to a project and when
type Machine struct {
	policy VersionPolicy
}

func NewMachine(policy VersionPolicy) Machine {
	return Machine{policy: policy}
}

func (m Machine) Policy() VersionPolicy {
	return m.policy
}

// Check authorizes the actor first and only then validates the current status
func (m Machine) Check(p *models.Project, s Session, action Action) error {
	r, ok := rules[action]
	if !ok {
		return errs.NewBadRequestError(fmt.Sprintf("unknown action %q", action))
	}
	if err := authorize(r.actor, p, s, action); err != nil {
		return err
	}
	if !slices.Contains(r.from, p.Status) {
		return errs.NewInvalidStateError(string(action), string(p.Status))
	}
	return nil
}

// Target is the status a transition leads to, empty when the action keeps or removes the project
func (m Machine) Target(action Action) models.ProjectStatus {
	return rules[action].to
}

// From lists the statuses an action may start from
func (m Machine) From(action Action) []models.ProjectStatus {
	return slices.Clone(rules[action].from)
}

// Allowed lists every action the session may perform on the project right now
func (m Machine) Allowed(p *models.Project, s Session) []Action {
	allowed := make([]Action, 0, len(actionOrder))
	for _, action := range actionOrder {
		if m.Check(p, s, action) == nil {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

func authorize(a actor, p *models.Project, s Session, action Action) error {
	switch a {
	case actorOwner:
		if s.Owns(p) {
			return nil
		}
	case actorAssignedEditor:
		if s.AssignedTo(p) {
			return nil
		}
	case actorParticipant:
		if s.Owns(p) || s.AssignedTo(p) {
			return nil
		}
	case actorUnassignedEditor:
		if !s.IsEditor() {
			break
		}
		if p.EditorID != nil {
			return errs.NewAlreadyClaimedError()
		}
		return nil
	}
	return errs.NewNotParticipantError(string(action))
}
