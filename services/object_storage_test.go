package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	projectID := uuid.MustParse("6f1c2a5e-0a3b-4d1e-9c7f-2b8e4d6a1c3f")
	now := time.UnixMilli(1700000000123)

	key := ObjectKey(projectID, "version", "Final Cut.MP4", now)
	assert.True(t, strings.HasPrefix(key, projectID.String()+"/version-1700000000123-"), key)
	assert.True(t, strings.HasSuffix(key, ".mp4"), key)

	assert.True(t, strings.HasSuffix(ObjectKey(projectID, "raw", "footage", now), ".bin"))
	assert.NotEqual(t, key, ObjectKey(projectID, "version", "Final Cut.MP4", now))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://x.supabase.co/storage/v1/object/public/edited-videos/p/v.mp4",
		PublicURL("https://x.supabase.co/storage/v1/object/public/", EditedVideosBucket, "p/v.mp4"))
}

func TestNewObjectStoreRequiresConfig(t *testing.T) {
	_, err := NewObjectStore(context.Background(), map[string]string{})
	require.Error(t, err)

	_, err = NewObjectStore(context.Background(), map[string]string{"STORAGE_ENDPOINT": "http://localhost:9000"})
	require.Error(t, err)
}

func TestUploadPutsObject(t *testing.T) {
	var gotPath, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewObjectStore(context.Background(), map[string]string{
		"STORAGE_ENDPOINT":          server.URL,
		"STORAGE_PUBLIC_URL":        "https://cdn.example.com/public",
		"STORAGE_ACCESS_KEY_ID":     "key",
		"STORAGE_SECRET_ACCESS_KEY": "secret",
	})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), RawFootageBucket, "p/raw.mp4", strings.NewReader("frames"), 6, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/public/project-files/p/raw.mp4", url)
	assert.Equal(t, "/project-files/p/raw.mp4", gotPath)
	assert.Equal(t, "video/mp4", gotType)
	assert.Contains(t, gotBody, "frames")
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	store := NewObjectStoreWithClient(nil, "https://cdn.example.com")
	_, err := store.Upload(context.Background(), RawFootageBucket, "k", strings.NewReader(""), MaxUploadSize+1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMaxBodySizeExceeded)
}
