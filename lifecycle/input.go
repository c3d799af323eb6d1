package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
)

// ProjectInput is the creator-editable part of a project
type ProjectInput struct {
	Title               string             `json:"title" validate:"required,min=3,max=200"`
	Description         string             `json:"description" validate:"omitempty,min=10,max=5000"`
	RawFootageURL       string             `json:"raw_footage_url" validate:"omitempty,url"`
	EditingInstructions string             `json:"editing_instructions" validate:"omitempty,min=10,max=5000"`
	ReelType            models.ReelType    `json:"reel_type" validate:"required,oneof=instagram youtube_shorts tiktok"`
	PricingTier         models.PricingTier `json:"pricing_tier" validate:"required,oneof=basic pro premium custom"`
	CustomPrice         *float64           `json:"custom_price,omitempty" validate:"omitempty,gt=0"`
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.RawFootageURL = strings.TrimSpace(in.RawFootageURL)
	in.EditingInstructions = strings.TrimSpace(in.EditingInstructions)
}

// VersionInput is what an editor delivers with a new version
type VersionInput struct {
	VideoURL    string  `json:"video_url" validate:"required,url"`
	EditorNotes *string `json:"editor_notes,omitempty" validate:"omitempty,max=5000"`
}

func (in *VersionInput) normalize() {
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	if in.EditorNotes != nil {
		notes := strings.TrimSpace(*in.EditorNotes)
		if notes == "" {
			in.EditorNotes = nil
		} else {
			in.EditorNotes = &notes
		}
	}
}

// CommentInput is a new comment; Timestamp marks a position in the reviewed video, in seconds
type CommentInput struct {
	Content   string   `json:"content" validate:"required,max=5000"`
	Timestamp *float64 `json:"timestamp,omitempty" validate:"omitempty,gte=0"`
}

func (in *CommentInput) normalize() {
	in.Content = strings.TrimSpace(in.Content)
}

// ProfileInput creates or updates a profile. Role is only honoured on creation.
type ProfileInput struct {
	Role          models.Role     `json:"role" validate:"omitempty,oneof=creator editor"`
	Bio           *string         `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Skillset      []string        `json:"skillset,omitempty" validate:"omitempty,max=50,dive,required,max=100"`
	PortfolioURLs []string        `json:"portfolio_urls,omitempty" validate:"omitempty,max=20,dive,url"`
	Preferences   json.RawMessage `json:"preferences,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so errors point at the field the client sent
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts the first failure into an errs validation error
func validateStruct(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return errs.NewMalformedPayloadError("input", err)
	}

	fieldErr := validationErrs[0]
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(field)
	case "min":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be at least %s characters", fieldErr.Param()))
	case "max":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be at most %s long", fieldErr.Param()))
	case "url":
		return errs.NewInvalidFieldError(field, "must be a valid URL")
	case "oneof":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be one of [%s]", fieldErr.Param()))
	case "gt", "gte":
		return errs.NewInvalidFieldError(field, fmt.Sprintf("must be %s %s", comparison(fieldErr.Tag()), fieldErr.Param()))
	}
	return errs.NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fieldErr.Tag()))
}

func comparison(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}

func validateProjectInput(v *validator.Validate, in *ProjectInput) error {
	in.normalize()
	if err := validateStruct(v, in); err != nil {
		return err
	}
	// custom_price is set if and only if the tier is custom
	if in.PricingTier == models.TierCustom && in.CustomPrice == nil {
		return errs.NewMissingRequiredFieldError("custom_price")
	}
	if in.PricingTier != models.TierCustom && in.CustomPrice != nil {
		return errs.NewInvalidFieldError("custom_price", "only allowed with the custom pricing tier")
	}
	return nil
}

func validateProfileInput(v *validator.Validate, in *ProfileInput) error {
	if err := validateStruct(v, in); err != nil {
		return err
	}
	if len(in.Preferences) > 0 {
		var prefs map[string]any
		if err := json.Unmarshal(in.Preferences, &prefs); err != nil {
			return errs.NewInvalidFieldError("preferences", "must be a JSON object")
		}
	}
	return nil
}

// requireSubmittable checks the fields a project needs before editors can see it
func requireSubmittable(p *models.Project) error {
	required := []struct {
		field string
		value string
	}{
		{"title", p.Title},
		{"description", p.Description},
		{"raw_footage_url", p.RawFootageURL},
		{"editing_instructions", p.EditingInstructions},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errs.NewMissingRequiredFieldError(r.field)
		}
	}
	return nil
}
