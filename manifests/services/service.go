// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentjoy/content-approval-app-sub001/internal/pkg/log"
	"github.com/contentjoy/content-approval-app-sub001/internal/types"
	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
	"github.com/contentjoy/content-approval-app-sub001/manifests/provider"
	manifestsRepository "github.com/contentjoy/content-approval-app-sub001/manifests/repository"
	uploadsRepository "github.com/contentjoy/content-approval-app-sub001/uploads/repository"
)

var (
	ErrUploadNotFound       = fmt.Errorf("upload not found")
	ErrMissingUploadID      = fmt.Errorf("upload id is required")
	ErrInvalidExpectedFiles = fmt.Errorf("expected files must be greater than zero")
	ErrIncompletePartSet    = fmt.Errorf("upload has fewer recorded parts than expected")
	ErrManifestWriteFailure = fmt.Errorf("manifest write returned no file id")
)

type service struct {
	repo      manifestsRepository.Repository
	chunkRepo uploadsRepository.Repository
	blobs     provider.BlobProvider
}

// NewManifestService creates the reconciliation service.
func NewManifestService(repo manifestsRepository.Repository, chunkRepo uploadsRepository.Repository, blobs provider.BlobProvider) ManifestService {
	return &service{
		repo:      repo,
		chunkRepo: chunkRepo,
		blobs:     blobs,
	}
}

// RegisterUpload declares an upload and its expected slot count
func (s *service) RegisterUpload(ctx context.Context, req *models.RegisterUploadRequest) (*models.Upload, error) {
	if req.UploadID == "" {
		return nil, ErrMissingUploadID
	}
	if req.ExpectedFiles <= 0 {
		return nil, ErrInvalidExpectedFiles
	}

	upload := &models.Upload{
		UploadID:      req.UploadID,
		GymSlug:       req.GymSlug,
		GymName:       req.GymName,
		FolderID:      req.FolderID,
		ExpectedFiles: req.ExpectedFiles,
		Status:        types.UploadStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.UpsertUpload(ctx, upload); err != nil {
		return nil, fmt.Errorf("failed to register upload %s: %w", req.UploadID, err)
	}
	return upload, nil
}

// RecordPart persists one completed transfer as a slot of an upload
func (s *service) RecordPart(ctx context.Context, uploadID, slotName, fileName, storageFileID string, sizeBytes int64, mimeType string) error {
	if uploadID == "" || slotName == "" {
		return ErrMissingUploadID
	}

	return s.repo.UpsertPart(ctx, &models.UploadFile{
		UploadID:      uploadID,
		SlotName:      slotName,
		FileName:      fileName,
		StorageFileID: storageFileID,
		SizeBytes:     sizeBytes,
		MimeType:      mimeType,
		CreatedAt:     time.Now(),
	})
}

// Finalize reconciles an upload. The order matters: buffered chunk
// sessions are flushed first so their parts count toward the expected set,
// the part check gates the manifest, and chunk rows are purged only after
// their assembled file is safely stored.
func (s *service) Finalize(ctx context.Context, uploadID string) (*models.FinalizeResponse, error) {
	upload, err := s.repo.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load upload %s: %w", uploadID, err)
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}

	// A second finalize of a complete upload returns the stored summary
	// without writing a second manifest.
	if upload.Status == types.UploadStatusComplete {
		parts, err := s.repo.PartsForUpload(ctx, uploadID)
		if err != nil {
			return nil, fmt.Errorf("failed to list parts of %s: %w", uploadID, err)
		}
		return s.summary(upload, parts), nil
	}

	if err := s.flushCompleteSessions(ctx, upload); err != nil {
		return nil, err
	}

	parts, err := s.repo.PartsForUpload(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts of %s: %w", uploadID, err)
	}
	if len(parts) < upload.ExpectedFiles {
		return nil, fmt.Errorf("%w: %d of %d", ErrIncompletePartSet, len(parts), upload.ExpectedFiles)
	}

	manifestFileID, manifestFileName, err := s.writeManifest(ctx, upload, parts)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkComplete(ctx, uploadID, manifestFileID, manifestFileName); err != nil {
		return nil, fmt.Errorf("manifest %s written but completion not persisted: %w", manifestFileID, err)
	}

	upload.Status = types.UploadStatusComplete
	upload.ManifestFileID = manifestFileID
	upload.ManifestFileName = manifestFileName

	log.InfoWithContext(ctx, "Upload %s finalized: %d parts, manifest %s", uploadID, len(parts), manifestFileID)
	return s.summary(upload, parts), nil
}

// flushCompleteSessions assembles every complete chunk session tagged with
// this upload and stores it as a part. Chunk rows are purged only after
// both the blob write and the part record succeed.
func (s *service) flushCompleteSessions(ctx context.Context, upload *models.Upload) error {
	sessionIDs, err := s.chunkRepo.CompleteSessionsForUpload(ctx, upload.UploadID)
	if err != nil {
		return fmt.Errorf("failed to list complete sessions of %s: %w", upload.UploadID, err)
	}

	for _, sessionID := range sessionIDs {
		chunks, err := s.chunkRepo.ChunksInOrder(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load chunks of session %s: %w", sessionID, err)
		}
		if len(chunks) == 0 {
			continue
		}

		var assembled []byte
		for _, chunk := range chunks {
			assembled = append(assembled, chunk.Payload...)
		}

		head := chunks[0]
		folderID := head.FolderID
		if folderID == "" {
			folderID = upload.FolderID
		}

		fileID, err := s.blobs.Put(ctx, &provider.PutRequest{
			Name:     head.FileName,
			MimeType: head.FileType,
			FolderID: folderID,
			Content:  assembled,
		})
		if err != nil {
			return fmt.Errorf("failed to store assembled file %s: %w", head.FileName, err)
		}

		slotName := head.SlotName
		if slotName == "" {
			slotName = sessionID
		}

		if err := s.repo.UpsertPart(ctx, &models.UploadFile{
			UploadID:      upload.UploadID,
			SlotName:      slotName,
			FileName:      head.FileName,
			StorageFileID: fileID,
			SizeBytes:     int64(len(assembled)),
			MimeType:      head.FileType,
			CreatedAt:     time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to record flushed part %s: %w", slotName, err)
		}

		if err := s.chunkRepo.PurgeSession(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to purge flushed session %s: %w", sessionID, err)
		}

		log.InfoWithContext(ctx, "Flushed session %s to %s (%d bytes)", sessionID, fileID, len(assembled))
	}
	return nil
}

func (s *service) writeManifest(ctx context.Context, upload *models.Upload, parts []*models.UploadFile) (string, string, error) {
	manifest := models.Manifest{
		UploadID:   upload.UploadID,
		GymSlug:    upload.GymSlug,
		GymName:    upload.GymName,
		CreatedAt:  time.Now().UTC(),
		TotalFiles: len(parts),
	}
	for _, part := range parts {
		manifest.Parts = append(manifest.Parts, models.ManifestPart{
			SlotName:  part.SlotName,
			FileName:  part.FileName,
			FileID:    part.StorageFileID,
			SizeBytes: part.SizeBytes,
			MimeType:  part.MimeType,
		})
	}

	content, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	manifestFileName := fmt.Sprintf("%s-manifest.json", upload.UploadID)
	manifestFileID, err := s.blobs.Put(ctx, &provider.PutRequest{
		Name:     manifestFileName,
		MimeType: "application/json",
		FolderID: upload.FolderID,
		Content:  content,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to write manifest for %s: %w", upload.UploadID, err)
	}
	if manifestFileID == "" {
		return "", "", ErrManifestWriteFailure
	}
	return manifestFileID, manifestFileName, nil
}

func (s *service) summary(upload *models.Upload, parts []*models.UploadFile) *models.FinalizeResponse {
	resp := &models.FinalizeResponse{
		OK:               true,
		UploadID:         upload.UploadID,
		Status:           upload.Status,
		ManifestFileID:   upload.ManifestFileID,
		ManifestFileName: upload.ManifestFileName,
		TotalFiles:       len(parts),
	}
	for _, part := range parts {
		resp.Parts = append(resp.Parts, models.ManifestPart{
			SlotName:  part.SlotName,
			FileName:  part.FileName,
			FileID:    part.StorageFileID,
			SizeBytes: part.SizeBytes,
			MimeType:  part.MimeType,
		})
	}
	return resp
}
