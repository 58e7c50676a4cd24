// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package drive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, maxAttempts int, sleeps *[]time.Duration) *Client {
	t.Helper()

	creds := NewCredentialChainFromStrategies(&staticTokenStrategy{token: "test-token"})
	sleep := func(d time.Duration) {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
	}
	return NewClientWithDependencies(baseURL, baseURL, creds, http.DefaultClient,
		maxAttempts, 10*time.Millisecond, 80*time.Millisecond, sleep)
}

func TestInitResumable_ReturnsUploadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "1048576", r.Header.Get("X-Upload-Content-Length"))

		w.Header().Set("Location", "https://upload.example.com/session/abc")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)
	uploadURL, err := client.InitResumable(context.Background(), &FileMeta{
		Name:      "workout.mp4",
		MimeType:  "video/mp4",
		SizeBytes: 1048576,
		FolderID:  "folder-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://upload.example.com/session/abc", uploadURL)
}

func TestInitResumable_FailureCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("insufficient permissions"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)
	_, err := client.InitResumable(context.Background(), &FileMeta{Name: "x", SizeBytes: 1})

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, KindInit, protocolErr.Kind)
	assert.Equal(t, http.StatusForbidden, protocolErr.StatusCode)
	assert.Contains(t, protocolErr.Body, "insufficient permissions")
}

func TestPutRange_RetriesTransientThenCompletes(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes 0-3/4", r.Header.Get("Content-Range"))

		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id": "file-123"}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(t, server.URL, 5, &sleeps)

	result, err := client.PutRange(context.Background(), server.URL, 0, 3, 4, []byte("data"), "video/mp4")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, "file-123", result.FileID)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// Backoff doubles between attempts.
	require.Len(t, sleeps, 2)
	assert.Less(t, sleeps[0], sleeps[1])
}

func TestPutRange_BackoffIsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(t, server.URL, 6, &sleeps)

	_, err := client.PutRange(context.Background(), server.URL, 0, 3, 4, []byte("data"), "")
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	require.Len(t, sleeps, 5)
	for _, delay := range sleeps {
		assert.LessOrEqual(t, delay, 80*time.Millisecond)
	}
	assert.Equal(t, 80*time.Millisecond, sleeps[len(sleeps)-1])
}

func TestPutRange_308SurfacesConfirmedRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Range", "bytes=0-1023")
		w.WriteHeader(http.StatusPermanentRedirect)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)
	result, err := client.PutRange(context.Background(), server.URL, 0, 1023, 4096, make([]byte, 1024), "")
	require.NoError(t, err)

	assert.True(t, result.Continued)
	assert.False(t, result.Completed)
	assert.Equal(t, "bytes=0-1023", result.ConfirmedRange)
	assert.Equal(t, 1, result.Attempts)
}

func TestPutRange_PermanentFailureDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("upload session expired"))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(t, server.URL, 5, &sleeps)

	_, err := client.PutRange(context.Background(), server.URL, 0, 3, 4, []byte("data"), "")
	require.Error(t, err)

	assert.True(t, IsPermanent(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeps)

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, http.StatusNotFound, protocolErr.StatusCode)
	assert.Contains(t, protocolErr.Body, "expired")
}

func TestVerify_FindsFileBySizeAndName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "name = 'workout.mp4'")
		w.Write([]byte(`{"files": [{"id": "file-9", "name": "workout.mp4", "size": "2048"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)

	result, err := client.Verify(context.Background(), "folder-1", "workout.mp4", 2048)
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.True(t, result.SizeMatch)
	assert.Equal(t, "file-9", result.FileID)

	result, err = client.Verify(context.Background(), "folder-1", "workout.mp4", 4096)
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.False(t, result.SizeMatch)
}

func TestVerify_AbsentFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)
	result, err := client.Verify(context.Background(), "folder-1", "missing.mp4", 1)
	require.NoError(t, err)
	assert.False(t, result.Exists)
}

func TestUploadSimple_ReturnsFileID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/related")
		w.Write([]byte(`{"id": "manifest-7"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, nil)
	fileID, err := client.UploadSimple(context.Background(), &FileMeta{
		Name:     "u1-manifest.json",
		MimeType: "application/json",
		FolderID: "folder-1",
	}, []byte(`{"uploadId":"u1"}`))

	require.NoError(t, err)
	assert.Equal(t, "manifest-7", fileID)
}
