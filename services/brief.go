package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpupo63/reel-marketplace-backend/config"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultBriefModel = "gpt-4o-mini"

// BriefWriter asks an LLM for a short editing brief built from the project fields
type BriefWriter struct {
	llm    llms.Model
	logger zerolog.Logger
}

// NewBriefWriter reads OPENAI_API_KEY and OPENAI_MODEL
func NewBriefWriter(cfg map[string]string) (*BriefWriter, error) {
	token := config.GetString(cfg, "OPENAI_API_KEY", "")
	if token == "" {
		return nil, errs.NewConfigError("OPENAI_API_KEY", errs.ErrMissingRequiredField)
	}

	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithModel(config.GetString(cfg, "OPENAI_MODEL", defaultBriefModel)),
	)
	if err != nil {
		return nil, errs.NewConfigError("openai", err)
	}
	return NewBriefWriterWithModel(llm), nil
}

func NewBriefWriterWithModel(llm llms.Model) *BriefWriter {
	return &BriefWriter{
		llm:    llm,
		logger: log.With().Str("component", "brief").Logger(),
	}
}

// WriteBrief implements lifecycle.BriefWriter
func (b *BriefWriter) WriteBrief(ctx context.Context, project *models.Project) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, b.llm, briefPrompt(project),
		llms.WithTemperature(0.4),
		llms.WithMaxTokens(400),
	)
	if err != nil {
		b.logger.Error().Err(err).Str("projectID", project.ID.String()).Msg("brief generation failed")
		return "", errs.NewServiceUnreachableError("openai", err)
	}

	brief := strings.TrimSpace(completion)
	if brief == "" {
		return "", errs.NewUpstreamRejectedError("openai", 200, "empty completion")
	}
	return brief, nil
}

func briefPrompt(p *models.Project) string {
	var sb strings.Builder
	sb.WriteString("You write short, concrete briefs for freelance video editors cutting social media reels.\n")
	sb.WriteString("Summarise the job below in at most five bullet points covering pacing, length, style and must-have moments.\n\n")
	fmt.Fprintf(&sb, "Platform: %s\n", reelTypeLabel(p.ReelType))
	fmt.Fprintf(&sb, "Title: %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", p.Description)
	}
	if p.EditingInstructions != "" {
		fmt.Fprintf(&sb, "Creator instructions: %s\n", p.EditingInstructions)
	}
	return sb.String()
}

func reelTypeLabel(t models.ReelType) string {
	switch t {
	case models.ReelInstagram:
		return "Instagram Reels"
	case models.ReelYoutubeShorts:
		return "YouTube Shorts"
	case models.ReelTiktok:
		return "TikTok"
	}
	return string(t)
}
