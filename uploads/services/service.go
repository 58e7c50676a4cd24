// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/contentjoy/content-approval-app-sub001/internal/pkg/log"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
	uploadsRepository "github.com/contentjoy/content-approval-app-sub001/uploads/repository"
)

var (
	ErrInvalidChunkIndex = fmt.Errorf("invalid chunk index: index must be less than total chunks")
	ErrInvalidTotalCount = fmt.Errorf("invalid total chunks: must be greater than zero")
	ErrEmptyPayload      = fmt.Errorf("empty chunk payload")
	ErrChunkTooLarge     = fmt.Errorf("chunk too large: max size exceeded")
	ErrSessionNotFound   = fmt.Errorf("session not found")
)

type service struct {
	repo   uploadsRepository.Repository
	config *platformconfig.UploadsConfig
}

// NewChunkService creates a new chunk buffering service
func NewChunkService(repo uploadsRepository.Repository, config *platformconfig.UploadsConfig) ChunkService {
	return &service{
		repo:   repo,
		config: config,
	}
}

// StoreChunk validates one chunk and upserts it. A redelivered
// (session, index) pair overwrites the previous payload, so client retries
// are idempotent.
func (s *service) StoreChunk(ctx context.Context, chunk *models.Chunk) (*models.SessionStatusResponse, error) {
	if chunk.TotalChunks <= 0 {
		return nil, ErrInvalidTotalCount
	}
	if chunk.ChunkIndex < 0 || chunk.ChunkIndex >= chunk.TotalChunks {
		return nil, fmt.Errorf("%w: index %d, total %d", ErrInvalidChunkIndex, chunk.ChunkIndex, chunk.TotalChunks)
	}
	if len(chunk.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if s.config.MaxChunkBytes > 0 && int64(len(chunk.Payload)) > s.config.MaxChunkBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrChunkTooLarge, len(chunk.Payload), s.config.MaxChunkBytes)
	}

	if chunk.ReceivedAt.IsZero() {
		chunk.ReceivedAt = time.Now()
	}

	if err := s.repo.UpsertChunk(ctx, chunk); err != nil {
		// Persistence failures must reach the caller: a silently dropped
		// chunk corrupts the eventual reassembly.
		return nil, fmt.Errorf("failed to store chunk %d of session %s: %w", chunk.ChunkIndex, chunk.SessionID, err)
	}

	status, err := s.SessionStatus(ctx, chunk.SessionID)
	if err != nil {
		return nil, err
	}

	if status.IsComplete {
		log.InfoWithContext(ctx, "Session %s complete: %d/%d chunks for %s",
			chunk.SessionID, status.ReceivedChunks, status.TotalChunks, status.FileName)
	}

	return status, nil
}

// SessionStatus recomputes the session projection from persisted state on
// every call. Chunks for one session can arrive through different server
// instances, so nothing here is ever cached in memory.
func (s *service) SessionStatus(ctx context.Context, sessionID string) (*models.SessionStatusResponse, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	missing, err := s.missingChunks(ctx, session)
	if err != nil {
		return nil, err
	}

	return &models.SessionStatusResponse{
		SessionID:      session.SessionID,
		FileName:       session.FileName,
		FileType:       session.FileType,
		GymSlug:        session.GymSlug,
		GymName:        session.GymName,
		FolderID:       session.FolderID,
		ReceivedChunks: session.Received,
		TotalChunks:    session.TotalChunks,
		MissingChunks:  missing,
		IsComplete:     session.IsComplete(),
		LastActivity:   session.LastActivity,
	}, nil
}

func (s *service) missingChunks(ctx context.Context, session *models.Session) ([]int, error) {
	if session.IsComplete() {
		return nil, nil
	}

	indexes, err := s.repo.ChunkIndexes(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk indexes: %w", err)
	}

	present := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		present[idx] = true
	}

	var missing []int
	for i := 0; i < session.TotalChunks; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}
	return missing, nil
}

// CleanupIdleSessions purges sessions idle past the retention window.
// Safe to run concurrently with active uploads: the repository re-checks
// last activity inside the delete statement.
func (s *service) CleanupIdleSessions(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.SessionRetention)

	removed, err := s.repo.DeleteIdleSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up idle sessions: %w", err)
	}

	if removed > 0 {
		log.Info("Cleanup removed %d chunk rows idle since %s", removed, cutoff.Format(time.RFC3339))
	}
	return removed, nil
}
