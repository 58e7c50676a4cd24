// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
)

// ChunkService buffers chunked uploads durably and answers completion queries.
type ChunkService interface {
	// StoreChunk validates and stores one chunk, returning the session
	// status after the write.
	StoreChunk(ctx context.Context, chunk *models.Chunk) (*models.SessionStatusResponse, error)

	// SessionStatus reports the current derived state of one session.
	SessionStatus(ctx context.Context, sessionID string) (*models.SessionStatusResponse, error)

	// CleanupIdleSessions purges sessions idle past the retention window
	// and returns the number of chunk rows removed.
	CleanupIdleSessions(ctx context.Context) (int64, error)
}
