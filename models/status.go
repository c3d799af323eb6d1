package models

import "fmt"

// Role is the marketplace role attached to a profile
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
)

func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleEditor
}

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	StatusDraft      ProjectStatus = "draft"
	StatusSubmitted  ProjectStatus = "submitted"
	StatusInProgress ProjectStatus = "in_progress"
	StatusInRevision ProjectStatus = "in_revision"
	StatusCompleted  ProjectStatus = "completed"
	StatusCancelled  ProjectStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []ProjectStatus{
	StatusDraft,
	StatusSubmitted,
	StatusInProgress,
	StatusInRevision,
	StatusCompleted,
	StatusCancelled,
}

func (s ProjectStatus) Valid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves this status
func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseProjectStatus converts a raw value (e.g. a query parameter) into a status
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	status := ProjectStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown project status %q", raw)
	}
	return status, nil
}

// ReelType is the target platform of the finished edit
type ReelType string

const (
	ReelInstagram     ReelType = "instagram"
	ReelYoutubeShorts ReelType = "youtube_shorts"
	ReelTiktok        ReelType = "tiktok"
)

func (t ReelType) Valid() bool {
	switch t {
	case ReelInstagram, ReelYoutubeShorts, ReelTiktok:
		return true
	}
	return false
}

// PricingTier is the price bracket chosen by the creator
type PricingTier string

const (
	TierBasic   PricingTier = "basic"
	TierPro     PricingTier = "pro"
	TierPremium PricingTier = "premium"
	TierCustom  PricingTier = "custom"
)

func (t PricingTier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierPremium, TierCustom:
		return true
	}
	return false
}
