package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	prompt string
	reply  string
	err    error
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, part := range messages[0].Parts {
		if text, ok := part.(llms.TextContent); ok {
			m.prompt = text.Text
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestWriteBrief(t *testing.T) {
	model := &fakeModel{reply: "  - Open on the jump\n- Keep it under 30s  "}
	writer := NewBriefWriterWithModel(model)

	brief, err := writer.WriteBrief(context.Background(), &models.Project{
		Title:               "Cliff dive",
		Description:         "GoPro footage of the dive",
		EditingInstructions: "Slow motion on the entry",
		ReelType:            models.ReelYoutubeShorts,
	})
	require.NoError(t, err)
	assert.Equal(t, "- Open on the jump\n- Keep it under 30s", brief)
	assert.Contains(t, model.prompt, "Platform: YouTube Shorts")
	assert.Contains(t, model.prompt, "Creator instructions: Slow motion on the entry")
}

func TestWriteBriefFailures(t *testing.T) {
	_, err := NewBriefWriterWithModel(&fakeModel{err: errors.New("rate limited")}).
		WriteBrief(context.Background(), &models.Project{Title: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsServiceUnreachableError(err))

	_, err = NewBriefWriterWithModel(&fakeModel{reply: "   "}).
		WriteBrief(context.Background(), &models.Project{Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstreamRejected)
}

func TestNewBriefWriterRequiresKey(t *testing.T) {
	_, err := NewBriefWriter(map[string]string{})
	assert.Error(t, err)
}
