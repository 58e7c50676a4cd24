// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentjoy/content-approval-app-sub001/internal/types"
	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
	"github.com/contentjoy/content-approval-app-sub001/manifests/provider"
	uploadModels "github.com/contentjoy/content-approval-app-sub001/uploads/models"
)

type fakeManifestRepo struct {
	uploads map[string]*models.Upload
	parts   map[string]map[string]*models.UploadFile
}

func newFakeManifestRepo() *fakeManifestRepo {
	return &fakeManifestRepo{
		uploads: make(map[string]*models.Upload),
		parts:   make(map[string]map[string]*models.UploadFile),
	}
}

func (f *fakeManifestRepo) UpsertUpload(ctx context.Context, upload *models.Upload) error {
	copied := *upload
	f.uploads[upload.UploadID] = &copied
	return nil
}

func (f *fakeManifestRepo) GetUpload(ctx context.Context, uploadID string) (*models.Upload, error) {
	upload, ok := f.uploads[uploadID]
	if !ok {
		return nil, nil
	}
	copied := *upload
	return &copied, nil
}

func (f *fakeManifestRepo) UpsertPart(ctx context.Context, part *models.UploadFile) error {
	if f.parts[part.UploadID] == nil {
		f.parts[part.UploadID] = make(map[string]*models.UploadFile)
	}
	copied := *part
	f.parts[part.UploadID][part.SlotName] = &copied
	return nil
}

func (f *fakeManifestRepo) PartsForUpload(ctx context.Context, uploadID string) ([]*models.UploadFile, error) {
	var slots []string
	for slot := range f.parts[uploadID] {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	var out []*models.UploadFile
	for _, slot := range slots {
		out = append(out, f.parts[uploadID][slot])
	}
	return out, nil
}

func (f *fakeManifestRepo) MarkComplete(ctx context.Context, uploadID, manifestFileID, manifestFileName string) error {
	upload := f.uploads[uploadID]
	upload.Status = types.UploadStatusComplete
	upload.ManifestFileID = manifestFileID
	upload.ManifestFileName = manifestFileName
	now := time.Now()
	upload.CompletedAt = &now
	return nil
}

// fakeChunkRepo serves complete sessions for flushing.
type fakeChunkRepo struct {
	sessions map[string][]*uploadModels.Chunk
	byUpload map[string][]string
	purged   []string
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{
		sessions: make(map[string][]*uploadModels.Chunk),
		byUpload: make(map[string][]string),
	}
}

func (f *fakeChunkRepo) addSession(uploadID, sessionID string, chunks ...*uploadModels.Chunk) {
	f.sessions[sessionID] = chunks
	f.byUpload[uploadID] = append(f.byUpload[uploadID], sessionID)
}

func (f *fakeChunkRepo) UpsertChunk(ctx context.Context, chunk *uploadModels.Chunk) error { return nil }

func (f *fakeChunkRepo) GetSession(ctx context.Context, sessionID string) (*uploadModels.Session, error) {
	return nil, nil
}

func (f *fakeChunkRepo) ChunkIndexes(ctx context.Context, sessionID string) ([]int, error) {
	return nil, nil
}

func (f *fakeChunkRepo) ChunksInOrder(ctx context.Context, sessionID string) ([]*uploadModels.Chunk, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeChunkRepo) CompleteSessionsForUpload(ctx context.Context, uploadID string) ([]string, error) {
	return f.byUpload[uploadID], nil
}

func (f *fakeChunkRepo) PurgeSession(ctx context.Context, sessionID string) error {
	f.purged = append(f.purged, sessionID)
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeChunkRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeBlobProvider struct {
	puts       []*provider.PutRequest
	nextFileID string
	err        error
}

func (f *fakeBlobProvider) Put(ctx context.Context, req *provider.PutRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, req)
	return f.nextFileID, nil
}

func registeredService(t *testing.T, expectedFiles int) (ManifestService, *fakeManifestRepo, *fakeChunkRepo, *fakeBlobProvider) {
	t.Helper()

	repo := newFakeManifestRepo()
	chunkRepo := newFakeChunkRepo()
	blobs := &fakeBlobProvider{nextFileID: "stored-1"}
	svc := NewManifestService(repo, chunkRepo, blobs)

	_, err := svc.RegisterUpload(context.Background(), &models.RegisterUploadRequest{
		UploadID:      "u1",
		GymSlug:       "iron-temple",
		GymName:       "Iron Temple",
		FolderID:      "folder-1",
		ExpectedFiles: expectedFiles,
	})
	require.NoError(t, err)
	return svc, repo, chunkRepo, blobs
}

func TestRegisterUpload_Validation(t *testing.T) {
	svc := NewManifestService(newFakeManifestRepo(), newFakeChunkRepo(), &fakeBlobProvider{})
	ctx := context.Background()

	_, err := svc.RegisterUpload(ctx, &models.RegisterUploadRequest{ExpectedFiles: 1})
	assert.ErrorIs(t, err, ErrMissingUploadID)

	_, err = svc.RegisterUpload(ctx, &models.RegisterUploadRequest{UploadID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidExpectedFiles)
}

func TestFinalize_UnknownUpload(t *testing.T) {
	svc := NewManifestService(newFakeManifestRepo(), newFakeChunkRepo(), &fakeBlobProvider{})

	_, err := svc.Finalize(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestFinalize_IncompletePartSet(t *testing.T) {
	svc, _, _, _ := registeredService(t, 2)
	ctx := context.Background()

	require.NoError(t, svc.RecordPart(ctx, "u1", "hero-video", "a.mp4", "file-a", 10, "video/mp4"))

	_, err := svc.Finalize(ctx, "u1")
	assert.ErrorIs(t, err, ErrIncompletePartSet)
}

func TestFinalize_WritesManifestOnce(t *testing.T) {
	svc, repo, _, blobs := registeredService(t, 2)
	ctx := context.Background()
	blobs.nextFileID = "manifest-1"

	require.NoError(t, svc.RecordPart(ctx, "u1", "hero-video", "a.mp4", "file-a", 10, "video/mp4"))
	require.NoError(t, svc.RecordPart(ctx, "u1", "logo", "b.png", "file-b", 5, "image/png"))

	resp, err := svc.Finalize(ctx, "u1")
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, types.UploadStatusComplete, resp.Status)
	assert.Equal(t, "manifest-1", resp.ManifestFileID)
	assert.Equal(t, "u1-manifest.json", resp.ManifestFileName)
	assert.Equal(t, 2, resp.TotalFiles)

	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"ok":true`)

	// Exactly one blob write: the manifest itself.
	require.Len(t, blobs.puts, 1)
	assert.Equal(t, "application/json", blobs.puts[0].MimeType)

	var manifest models.Manifest
	require.NoError(t, json.Unmarshal(blobs.puts[0].Content, &manifest))
	assert.Equal(t, "u1", manifest.UploadID)
	assert.Equal(t, 2, manifest.TotalFiles)
	require.Len(t, manifest.Parts, 2)
	assert.Equal(t, "file-a", manifest.Parts[0].FileID)

	stored, err := repo.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.UploadStatusComplete, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	// A second finalize returns the stored summary without another write.
	resp, err = svc.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "manifest-1", resp.ManifestFileID)
	assert.Len(t, blobs.puts, 1)
}

func TestFinalize_MissingManifestIDFails(t *testing.T) {
	svc, _, _, blobs := registeredService(t, 1)
	ctx := context.Background()
	blobs.nextFileID = ""

	require.NoError(t, svc.RecordPart(ctx, "u1", "hero-video", "a.mp4", "file-a", 10, "video/mp4"))

	_, err := svc.Finalize(ctx, "u1")
	assert.ErrorIs(t, err, ErrManifestWriteFailure)
}

func TestFinalize_FlushesBufferedSessions(t *testing.T) {
	svc, repo, chunkRepo, blobs := registeredService(t, 1)
	ctx := context.Background()
	blobs.nextFileID = "assembled-1"

	chunkRepo.addSession("u1", "sess-1",
		&uploadModels.Chunk{SessionID: "sess-1", ChunkIndex: 0, TotalChunks: 2, FileName: "c.mp4", FileType: "video/mp4", SlotName: "reel", Payload: []byte("hel")},
		&uploadModels.Chunk{SessionID: "sess-1", ChunkIndex: 1, TotalChunks: 2, FileName: "c.mp4", FileType: "video/mp4", SlotName: "reel", Payload: []byte("lo")},
	)

	resp, err := svc.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalFiles)

	// First write is the assembled file, second the manifest.
	require.Len(t, blobs.puts, 2)
	assert.Equal(t, "c.mp4", blobs.puts[0].Name)
	assert.Equal(t, []byte("hello"), blobs.puts[0].Content)

	parts, err := repo.PartsForUpload(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "reel", parts[0].SlotName)
	assert.Equal(t, int64(5), parts[0].SizeBytes)

	assert.Equal(t, []string{"sess-1"}, chunkRepo.purged)
}
