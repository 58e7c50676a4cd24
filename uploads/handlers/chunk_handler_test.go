// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
	"github.com/contentjoy/content-approval-app-sub001/uploads/services"
)

type memoryRepo struct {
	chunks map[string]map[int]*models.Chunk
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{chunks: make(map[string]map[int]*models.Chunk)}
}

func (m *memoryRepo) UpsertChunk(ctx context.Context, chunk *models.Chunk) error {
	if m.chunks[chunk.SessionID] == nil {
		m.chunks[chunk.SessionID] = make(map[int]*models.Chunk)
	}
	copied := *chunk
	m.chunks[chunk.SessionID][chunk.ChunkIndex] = &copied
	return nil
}

func (m *memoryRepo) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	rows := m.chunks[sessionID]
	if len(rows) == 0 {
		return nil, nil
	}
	session := &models.Session{SessionID: sessionID, Received: len(rows)}
	for _, chunk := range rows {
		if chunk.TotalChunks > session.TotalChunks {
			session.TotalChunks = chunk.TotalChunks
		}
		session.FileName = chunk.FileName
	}
	return session, nil
}

func (m *memoryRepo) ChunkIndexes(ctx context.Context, sessionID string) ([]int, error) {
	var indexes []int
	for idx := range m.chunks[sessionID] {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes, nil
}

func (m *memoryRepo) ChunksInOrder(ctx context.Context, sessionID string) ([]*models.Chunk, error) {
	indexes, _ := m.ChunkIndexes(ctx, sessionID)
	var out []*models.Chunk
	for _, idx := range indexes {
		out = append(out, m.chunks[sessionID][idx])
	}
	return out, nil
}

func (m *memoryRepo) CompleteSessionsForUpload(ctx context.Context, uploadID string) ([]string, error) {
	return nil, nil
}

func (m *memoryRepo) PurgeSession(ctx context.Context, sessionID string) error {
	delete(m.chunks, sessionID)
	return nil
}

func (m *memoryRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := services.NewChunkService(newMemoryRepo(), &platformconfig.UploadsConfig{
		SessionRetention: time.Hour,
		MaxChunkBytes:    1024 * 1024,
	})
	handler := NewChunkHandler(svc)

	app := fiber.New()
	app.Post("/uploads/chunk", handler.UploadChunk)
	app.Get("/uploads/session", handler.SessionStatus)
	app.Post("/uploads/maintenance/cleanup", handler.Cleanup)
	return app
}

func chunkRequest(t *testing.T, fields map[string]string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if payload != nil {
		part, err := writer.CreateFormFile("chunk", "blob")
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads/chunk", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func baseFields(sessionID string, index, total int) map[string]string {
	return map[string]string{
		"sessionId":        sessionID,
		"chunkIndex":       fmt.Sprintf("%d", index),
		"totalChunks":      fmt.Sprintf("%d", total),
		"originalFileName": "workout.mp4",
		"fileType":         "video/mp4",
		"gymSlug":          "iron-temple",
	}
}

func TestUploadChunk_MissingFields(t *testing.T) {
	app := newTestApp(t)

	for _, missing := range []string{"sessionId", "chunkIndex", "totalChunks", "originalFileName"} {
		t.Run(missing, func(t *testing.T) {
			fields := baseFields("s1", 0, 3)
			delete(fields, missing)

			resp, err := app.Test(chunkRequest(t, fields, []byte("data")))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			decodeJSON(t, resp, &body)
			assert.Equal(t, "MISSING_FIELD", body["error"])
		})
	}

	t.Run("chunk file", func(t *testing.T) {
		resp, err := app.Test(chunkRequest(t, baseFields("s1", 0, 3), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUploadChunk_AcceptsChunk(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(chunkRequest(t, baseFields("s1", 0, 3), []byte("data")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ChunkUploadResponse
	decodeJSON(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "s1", body.SessionID)
	assert.Equal(t, 1, body.ReceivedChunks)
	assert.False(t, body.IsComplete)
}

func TestUploadChunk_OutOfOrderCompletion(t *testing.T) {
	app := newTestApp(t)

	for _, index := range []int{2, 0} {
		resp, err := app.Test(chunkRequest(t, baseFields("s1", index, 3), []byte("data")))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(chunkRequest(t, baseFields("s1", 1, 3), []byte("data")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ChunkUploadResponse
	decodeJSON(t, resp, &body)
	assert.True(t, body.IsComplete)
	assert.Equal(t, 3, body.ReceivedChunks)
	assert.Equal(t, "All chunks received", body.Message)
}

func TestSessionStatus_NotFound(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/uploads/session?sessionId=ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "SESSION_NOT_FOUND", body["error"])
}

func TestSessionStatus_ReportsMissingChunks(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(chunkRequest(t, baseFields("s1", 2, 4), []byte("data")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/uploads/session?sessionId=s1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.SessionStatusResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, []int{0, 1, 3}, body.MissingChunks)
	assert.False(t, body.IsComplete)
}

func TestCleanup_Responds(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/uploads/maintenance/cleanup", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, true, body["ok"])
}
