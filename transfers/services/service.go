// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/contentjoy/content-approval-app-sub001/internal/cache"
	"github.com/contentjoy/content-approval-app-sub001/internal/pkg/log"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
	"github.com/contentjoy/content-approval-app-sub001/transfers/models"
)

var (
	ErrMissingFileName  = fmt.Errorf("file name is required")
	ErrInvalidSize      = fmt.Errorf("size must be greater than zero")
	ErrMissingFolderID  = fmt.Errorf("destination folder id is required")
	ErrMissingUploadURL = fmt.Errorf("upload url is required")
	ErrInvalidRange     = fmt.Errorf("invalid byte range")
	ErrInvalidChunkData = fmt.Errorf("chunk payload is not valid base64")
)

type service struct {
	bridge   ResumableBridge
	recorder PartRecorder
	cache    cache.Cache
	config   *platformconfig.UploadsConfig
}

// NewTransferService creates the resumable transfer orchestrator.
// recorder may be nil when reconciliation is not wired (untagged transfers
// are still valid).
func NewTransferService(bridge ResumableBridge, recorder PartRecorder, memo cache.Cache, config *platformconfig.UploadsConfig) TransferService {
	return &service{
		bridge:   bridge,
		recorder: recorder,
		cache:    memo,
		config:   config,
	}
}

// Start dedupes by name and exact size before paying for a resumable
// session. A dedupe hit never initiates a session.
func (s *service) Start(ctx context.Context, req *models.StartTransferRequest) (*models.StartTransferResponse, error) {
	if req.FileName == "" {
		return nil, ErrMissingFileName
	}
	if req.SizeBytes <= 0 {
		return nil, ErrInvalidSize
	}
	if req.FolderID == "" {
		return nil, ErrMissingFolderID
	}

	verify, err := s.verifyMemoized(ctx, req.FolderID, req.FileName, req.SizeBytes)
	if err != nil {
		// Dedupe is an optimization. A failed lookup must not block the
		// transfer itself.
		log.WarnWithContext(ctx, "Dedupe verify failed for %s, proceeding with upload: %v", req.FileName, err)
	} else if verify.Exists && verify.SizeMatch {
		log.InfoWithContext(ctx, "Dedupe hit for %s (%d bytes), skipping transfer", req.FileName, req.SizeBytes)
		return &models.StartTransferResponse{
			Deduped: true,
			FileID:  verify.FileID,
			State:   models.StateCompleted,
		}, nil
	}

	uploadURL, err := s.bridge.InitResumable(ctx, &drive.FileMeta{
		Name:      req.FileName,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		FolderID:  req.FolderID,
	})
	if err != nil {
		return nil, err
	}

	return &models.StartTransferResponse{
		UploadURL: uploadURL,
		State:     models.StateTransferring,
	}, nil
}

// PutRange forwards one slice. On completion with reconciliation tags it
// records the part before answering, so a crash after the remote write is
// recoverable through finalize.
func (s *service) PutRange(ctx context.Context, req *models.PutRangeRequest) (*models.PutRangeResponse, error) {
	if req.UploadURL == "" {
		return nil, ErrMissingUploadURL
	}
	if req.Start < 0 || req.End < req.Start || req.TotalBytes <= 0 || req.End >= req.TotalBytes {
		return nil, fmt.Errorf("%w: bytes %d-%d/%d", ErrInvalidRange, req.Start, req.End, req.TotalBytes)
	}

	payload, err := base64.StdEncoding.DecodeString(req.Chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunkData, err)
	}
	if int64(len(payload)) != req.End-req.Start+1 {
		return nil, fmt.Errorf("%w: payload is %d bytes, range covers %d", ErrInvalidRange, len(payload), req.End-req.Start+1)
	}

	result, err := s.bridge.PutRange(ctx, req.UploadURL, req.Start, req.End, req.TotalBytes, payload, req.MimeType)
	if err != nil {
		return nil, err
	}

	resp := &models.PutRangeResponse{
		OK:       true,
		Attempts: result.Attempts,
		State:    models.StateTransferring,
	}

	if result.Continued {
		resp.Continued = true
		resp.ConfirmedRange = result.ConfirmedRange
		return resp, nil
	}

	resp.Completed = true
	resp.FileID = result.FileID
	resp.State = models.StateCompleted

	if s.recorder != nil && req.UploadID != "" && req.SlotName != "" {
		if err := s.recorder.RecordPart(ctx, req.UploadID, req.SlotName, req.FileName, result.FileID, req.TotalBytes, req.MimeType); err != nil {
			// The remote file exists either way; reconciliation must hear
			// about the failure rather than lose the part silently.
			return nil, fmt.Errorf("transfer completed as %s but recording part %s/%s failed: %w",
				result.FileID, req.UploadID, req.SlotName, err)
		}
	}

	return resp, nil
}

// Verify answers the presence/size question directly, bypassing the memo
// so callers polling for a just-finished transfer see fresh state.
func (s *service) Verify(ctx context.Context, folderID, name string, sizeBytes int64) (*models.VerifyResponse, error) {
	if folderID == "" {
		return nil, ErrMissingFolderID
	}

	result, err := s.bridge.Verify(ctx, folderID, name, sizeBytes)
	if err != nil {
		return nil, err
	}

	return &models.VerifyResponse{
		Exists:    result.Exists,
		Match:     result.SizeMatch,
		FileID:    result.FileID,
		SizeBytes: result.SizeBytes,
	}, nil
}

func (s *service) verifyMemoized(ctx context.Context, folderID, name string, sizeBytes int64) (*drive.VerifyResult, error) {
	key := fmt.Sprintf("dedupe:%s:%s:%d", folderID, name, sizeBytes)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var result drive.VerifyResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	result, err := s.bridge.Verify(ctx, folderID, name, sizeBytes)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.config.DedupeCacheTTL); err != nil {
			log.WarnWithContext(ctx, "Failed to memoize verify result: %v", err)
		}
	}
	return result, nil
}
