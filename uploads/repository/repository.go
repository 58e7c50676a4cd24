// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"time"

	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
)

// Repository is the durable chunk store. Counts and completion are always
// derived from the stored rows so concurrent writers for different indices
// never race on an aggregate.
type Repository interface {
	// UpsertChunk inserts a chunk or replaces the payload for an existing
	// (session, index) key, bumping received_at.
	UpsertChunk(ctx context.Context, chunk *models.Chunk) error

	// GetSession returns the aggregate session projection, or nil when the
	// session has no chunks.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// ChunkIndexes returns the distinct stored indices for a session in
	// ascending order.
	ChunkIndexes(ctx context.Context, sessionID string) ([]int, error)

	// ChunksInOrder returns all chunks of a session ordered by index,
	// payloads included. Used by finalization to reassemble the file.
	ChunksInOrder(ctx context.Context, sessionID string) ([]*models.Chunk, error)

	// CompleteSessionsForUpload returns the session ids tagged with the
	// given upload id whose chunk set is complete.
	CompleteSessionsForUpload(ctx context.Context, uploadID string) ([]string, error)

	// PurgeSession deletes every chunk row of a session.
	PurgeSession(ctx context.Context, sessionID string) error

	// DeleteIdleSessions deletes all chunks of sessions whose newest chunk
	// is older than cutoff. The idle check runs inside the delete statement
	// so a session that received a chunk mid-sweep survives.
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}
