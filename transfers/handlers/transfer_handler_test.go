// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentjoy/content-approval-app-sub001/internal/cache"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
	"github.com/contentjoy/content-approval-app-sub001/transfers/services"
)

type stubBridge struct {
	initCalls    int
	lastMeta     *drive.FileMeta
	lastStart    int64
	lastEnd      int64
	lastTotal    int64
	lastMime     string
	verifyFolder string
	verifyName   string
	verifySize   int64
}

func (s *stubBridge) InitResumable(ctx context.Context, meta *drive.FileMeta) (string, error) {
	s.initCalls++
	s.lastMeta = meta
	return "https://upload.example.com/session/1", nil
}

func (s *stubBridge) PutRange(ctx context.Context, uploadURL string, start, end, total int64, payload []byte, mime string) (*drive.PutResult, error) {
	s.lastStart, s.lastEnd, s.lastTotal, s.lastMime = start, end, total, mime
	return &drive.PutResult{Completed: true, FileID: "file-1", Attempts: 1}, nil
}

func (s *stubBridge) Verify(ctx context.Context, folderID, name string, sizeBytes int64) (*drive.VerifyResult, error) {
	s.verifyFolder, s.verifyName, s.verifySize = folderID, name, sizeBytes
	return &drive.VerifyResult{}, nil
}

func newWireTestApp(t *testing.T) (*fiber.App, *stubBridge) {
	t.Helper()

	bridge := &stubBridge{}
	svc := services.NewTransferService(bridge, nil, cache.NewMemoryCache(), &platformconfig.UploadsConfig{
		DedupeCacheTTL: time.Minute,
	})
	handler := NewTransferHandler(svc)

	app := fiber.New()
	app.Post("/transfers/resumable/start", handler.Start)
	app.Post("/transfers/resumable/put", handler.PutRange)
	app.Get("/transfers/verify", handler.Verify)
	return app, bridge
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestStart_AcceptsWireFieldNames(t *testing.T) {
	app, bridge := newWireTestApp(t)

	resp := postJSON(t, app, "/transfers/resumable/start",
		`{"filename":"workout.mp4","mime":"video/mp4","sizeBytes":1048576,"parentId":"folder-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "https://upload.example.com/session/1", body["uploadUrl"])
	assert.Equal(t, false, body["deduped"])

	require.Equal(t, 1, bridge.initCalls)
	assert.Equal(t, "workout.mp4", bridge.lastMeta.Name)
	assert.Equal(t, "video/mp4", bridge.lastMeta.MimeType)
	assert.Equal(t, int64(1048576), bridge.lastMeta.SizeBytes)
	assert.Equal(t, "folder-1", bridge.lastMeta.FolderID)
}

func TestPutRange_AcceptsWireFieldNames(t *testing.T) {
	app, bridge := newWireTestApp(t)

	chunk := base64.StdEncoding.EncodeToString([]byte("data"))
	resp := postJSON(t, app, "/transfers/resumable/put", fmt.Sprintf(
		`{"uploadUrl":"https://upload.example.com/session/1","start":0,"end":3,"total":4,"chunkBase64":"%s","mime":"video/mp4"}`,
		chunk))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, "file-1", body["fileId"])

	assert.Equal(t, int64(0), bridge.lastStart)
	assert.Equal(t, int64(3), bridge.lastEnd)
	assert.Equal(t, int64(4), bridge.lastTotal)
	assert.Equal(t, "video/mp4", bridge.lastMime)
}

func TestVerify_UsesParentIDParam(t *testing.T) {
	app, bridge := newWireTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/transfers/verify?parentId=folder-1&name=workout.mp4&sizeBytes=2048", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "folder-1", bridge.verifyFolder)
	assert.Equal(t, "workout.mp4", bridge.verifyName)
	assert.Equal(t, int64(2048), bridge.verifySize)
}
