// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package drive encapsulates the cold-storage resumable-upload protocol:
// session init, sequential ranged PUTs with bounded retry, completion
// detection, and folder verification. The rest of the system depends only
// on this narrow contract.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/contentjoy/content-approval-app-sub001/internal/pkg/log"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/internal/types"
)

// FileMeta describes one file headed for cold storage.
type FileMeta struct {
	Name      string
	MimeType  string
	SizeBytes int64
	FolderID  string
}

// PutResult is the outcome of one ranged PUT.
// Exactly one of Continued/Completed is set.
type PutResult struct {
	Continued      bool
	ConfirmedRange string
	Completed      bool
	FileID         string
	Attempts       int
}

// VerifyResult is the outcome of a folder lookup.
type VerifyResult struct {
	Exists    bool
	SizeMatch bool
	FileID    string
	SizeBytes int64
}

// Client talks to the cold-storage API. Init, verify, and manifest writes
// go through a retrying HTTP client; ranged PUTs use a plain client with an
// explicit retry loop because the protocol distinguishes 308 (resume) from
// transient failure per attempt.
type Client struct {
	baseURL       string
	uploadBaseURL string
	creds         *CredentialChain
	httpClient    *retryablehttp.Client
	putClient     *http.Client

	maxPutAttempts int
	backoffBase    time.Duration
	backoffCap     time.Duration

	// sleep is swapped out in tests to record backoff delays
	sleep func(time.Duration)
}

// NewClient creates a cold-storage client from configuration.
func NewClient(storageCfg *platformconfig.DriveConfig, uploadsCfg *platformconfig.UploadsConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil

	return &Client{
		baseURL:        storageCfg.BaseURL,
		uploadBaseURL:  storageCfg.UploadBaseURL,
		creds:          NewCredentialChain(storageCfg, retryClient),
		httpClient:     retryClient,
		putClient:      &http.Client{Timeout: uploadsCfg.PutTimeout},
		maxPutAttempts: uploadsCfg.MaxPutAttempts,
		backoffBase:    uploadsCfg.BackoffBase,
		backoffCap:     uploadsCfg.BackoffCap,
		sleep:          time.Sleep,
	}
}

// NewClientWithDependencies wires explicit collaborators, used by tests.
func NewClientWithDependencies(baseURL, uploadBaseURL string, creds *CredentialChain, putClient *http.Client, maxPutAttempts int, backoffBase, backoffCap time.Duration, sleep func(time.Duration)) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.Logger = nil

	if putClient == nil {
		putClient = http.DefaultClient
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Client{
		baseURL:        baseURL,
		uploadBaseURL:  uploadBaseURL,
		creds:          creds,
		httpClient:     retryClient,
		putClient:      putClient,
		maxPutAttempts: maxPutAttempts,
		backoffBase:    backoffBase,
		backoffCap:     backoffCap,
		sleep:          sleep,
	}
}

// InitResumable starts a resumable session and returns the opaque,
// time-limited upload URL issued by cold storage.
func (c *Client) InitResumable(ctx context.Context, meta *FileMeta) (string, error) {
	token, err := c.creds.Resolve(ctx)
	if err != nil {
		return "", &ProtocolError{Kind: KindAuth, Err: err}
	}

	body, err := json.Marshal(map[string]interface{}{
		"name":     meta.Name,
		"mimeType": meta.MimeType,
		"parents":  []string{meta.FolderID},
	})
	if err != nil {
		return "", err
	}

	initURL := fmt.Sprintf("%s/files?uploadType=resumable&supportsAllDrives=true", c.uploadBaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, initURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set(types.HeaderAuthorization, types.BearerPrefix+token)
	req.Header.Set(types.HeaderContentType, "application/json; charset=UTF-8")
	req.Header.Set(types.HeaderUploadType, meta.MimeType)
	req.Header.Set(types.HeaderUploadLength, strconv.FormatInt(meta.SizeBytes, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProtocolError{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProtocolError{
			Kind:       KindInit,
			StatusCode: resp.StatusCode,
			Body:       readBodySnippet(resp.Body),
		}
	}

	uploadURL := resp.Header.Get("Location")
	if uploadURL == "" {
		return "", &ProtocolError{Kind: KindInit, StatusCode: resp.StatusCode, Body: "missing Location header"}
	}
	return uploadURL, nil
}

// PutRange sends one sequential slice of the file to the session URL.
// 308 means resume-incomplete and surfaces the server-confirmed range;
// 200/201 completes the transfer and yields the destination file id.
// Transient failures (5xx, 429, network) retry with capped exponential
// backoff up to the attempt ceiling; other 4xx fail immediately.
func (c *Client) PutRange(ctx context.Context, uploadURL string, start, end, total int64, payload []byte, mime string) (*PutResult, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxPutAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := c.doPut(ctx, uploadURL, start, end, total, payload, mime)
		if err == nil {
			result.Attempts = attempt
			return result, nil
		}
		if IsPermanent(err) {
			return nil, err
		}

		lastErr = err
		if attempt < c.maxPutAttempts {
			delay := c.backoffDelay(attempt)
			log.WarnWithContext(ctx, "Ranged PUT attempt %d/%d failed (%v), retrying in %s",
				attempt, c.maxPutAttempts, err, delay)
			c.sleep(delay)
		}
	}

	return nil, lastErr
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.backoffBase << (attempt - 1)
	if delay > c.backoffCap || delay <= 0 {
		delay = c.backoffCap
	}
	return delay
}

func (c *Client) doPut(ctx context.Context, uploadURL string, start, end, total int64, payload []byte, mime string) (*PutResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(types.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	if mime != "" {
		req.Header.Set(types.HeaderContentType, mime)
	}
	req.ContentLength = int64(len(payload))

	resp, err := c.putClient.Do(req)
	if err != nil {
		return nil, &ProtocolError{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPermanentRedirect:
		// 308 Resume Incomplete: the Range header tells the caller where
		// to continue.
		return &PutResult{
			Continued:      true,
			ConfirmedRange: resp.Header.Get("Range"),
		}, nil

	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return nil, &ProtocolError{Kind: KindPermanent, StatusCode: resp.StatusCode, Body: "unreadable completion body", Err: err}
		}
		if created.ID == "" {
			return nil, &ProtocolError{Kind: KindPermanent, StatusCode: resp.StatusCode, Body: "completion response missing file id"}
		}
		return &PutResult{Completed: true, FileID: created.ID}, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &ProtocolError{Kind: KindTransient, StatusCode: resp.StatusCode, Body: readBodySnippet(resp.Body)}

	default:
		return nil, &ProtocolError{Kind: KindPermanent, StatusCode: resp.StatusCode, Body: readBodySnippet(resp.Body)}
	}
}

// Verify checks whether a file with the given name and exact size already
// exists in the destination folder. With an empty name it degrades to a
// listing permission probe.
func (c *Client) Verify(ctx context.Context, folderID, name string, sizeBytes int64) (*VerifyResult, error) {
	token, err := c.creds.Resolve(ctx)
	if err != nil {
		return nil, &ProtocolError{Kind: KindAuth, Err: err}
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	if name != "" {
		query = fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", folderID, name)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id,name,size)")
	params.Set("pageSize", "10")
	params.Set("supportsAllDrives", "true")
	params.Set("includeItemsFromAllDrives", "true")

	listURL := fmt.Sprintf("%s/files?%s", c.baseURL, params.Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(types.HeaderAuthorization, types.BearerPrefix+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProtocolError{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := KindPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = KindTransient
		}
		return nil, &ProtocolError{Kind: kind, StatusCode: resp.StatusCode, Body: readBodySnippet(resp.Body)}
	}

	var listing struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Size string `json:"size"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode file listing: %w", err)
	}

	// Permission probe: listing succeeded, nothing more to check.
	if name == "" {
		return &VerifyResult{Exists: len(listing.Files) > 0}, nil
	}

	for _, f := range listing.Files {
		if f.Name != name {
			continue
		}
		size, _ := strconv.ParseInt(f.Size, 10, 64)
		return &VerifyResult{
			Exists:    true,
			SizeMatch: size == sizeBytes,
			FileID:    f.ID,
			SizeBytes: size,
		}, nil
	}
	return &VerifyResult{}, nil
}

// UploadSimple writes a small file (manifests, sidecar metadata) in a
// single multipart request and returns the destination file id.
func (c *Client) UploadSimple(ctx context.Context, meta *FileMeta, content []byte) (string, error) {
	token, err := c.creds.Resolve(ctx)
	if err != nil {
		return "", &ProtocolError{Kind: KindAuth, Err: err}
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"name":     meta.Name,
		"mimeType": meta.MimeType,
		"parents":  []string{meta.FolderID},
	})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set(types.HeaderContentType, "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return "", err
	}
	if _, err := metaPart.Write(metadata); err != nil {
		return "", err
	}

	contentHeader := textproto.MIMEHeader{}
	contentHeader.Set(types.HeaderContentType, meta.MimeType)
	contentPart, err := writer.CreatePart(contentHeader)
	if err != nil {
		return "", err
	}
	if _, err := contentPart.Write(content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	uploadURL := fmt.Sprintf("%s/files?uploadType=multipart&supportsAllDrives=true", c.uploadBaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body.Bytes())
	if err != nil {
		return "", err
	}
	req.Header.Set(types.HeaderAuthorization, types.BearerPrefix+token)
	req.Header.Set(types.HeaderContentType, "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProtocolError{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProtocolError{Kind: KindPermanent, StatusCode: resp.StatusCode, Body: readBodySnippet(resp.Body)}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return created.ID, nil
}

func readBodySnippet(r io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(snippet)
}
