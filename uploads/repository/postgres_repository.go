// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/contentjoy/content-approval-app-sub001/internal/database/postgres"
	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
)

type postgresRepository struct {
	client *postgres.Client
	schema string
}

// NewPostgresRepository creates a repository using the default schema.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client, schema: ""}
}

// NewPostgresRepositoryWithSchema creates a repository using a specific schema.
func NewPostgresRepositoryWithSchema(client *postgres.Client, schema string) Repository {
	return &postgresRepository{client: client, schema: schema}
}

func (r *postgresRepository) getExecutor(ctx context.Context) sqlx.ExtContext {
	if txVal := ctx.Value("tx"); txVal != nil {
		if tx, ok := txVal.(*sqlx.Tx); ok {
			return tx
		}
	}
	return r.client.DB()
}

func (r *postgresRepository) prefixSchema(query string) string {
	if r.schema != "" {
		return fmt.Sprintf(query, r.schema+".")
	}
	return fmt.Sprintf(query, "")
}

// UpsertChunk inserts or replaces one chunk row
func (r *postgresRepository) UpsertChunk(ctx context.Context, chunk *models.Chunk) error {
	query := `
		INSERT INTO %supload_chunks (session_id, chunk_index, total_chunks, file_name, mime_type, gym_slug, gym_name, folder_id, upload_id, slot_name, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id, chunk_index)
		DO UPDATE SET
			total_chunks = EXCLUDED.total_chunks,
			file_name = EXCLUDED.file_name,
			mime_type = EXCLUDED.mime_type,
			payload = EXCLUDED.payload,
			received_at = EXCLUDED.received_at
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	_, err := exec.ExecContext(ctx, sqlStr,
		chunk.SessionID, chunk.ChunkIndex, chunk.TotalChunks, chunk.FileName, chunk.FileType,
		chunk.GymSlug, chunk.GymName, chunk.FolderID, chunk.UploadID, chunk.SlotName,
		chunk.Payload, chunk.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store chunk: %w", err)
	}
	return nil
}

// GetSession derives the session projection from the chunk rows.
// Returns nil (no error) when the session has no chunks yet.
func (r *postgresRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT
			session_id,
			COUNT(*) AS received_chunks,
			MAX(total_chunks) AS total_chunks,
			MAX(file_name) AS file_name,
			MAX(mime_type) AS mime_type,
			MAX(gym_slug) AS gym_slug,
			MAX(gym_name) AS gym_name,
			MAX(folder_id) AS folder_id,
			MAX(upload_id) AS upload_id,
			MAX(slot_name) AS slot_name,
			MIN(received_at) AS created_at,
			MAX(received_at) AS last_activity
		FROM %supload_chunks
		WHERE session_id = $1
		GROUP BY session_id
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	var session models.Session
	err := exec.QueryRowxContext(ctx, sqlStr, sessionID).StructScan(&session)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// ChunkIndexes returns the stored indices of a session in ascending order
func (r *postgresRepository) ChunkIndexes(ctx context.Context, sessionID string) ([]int, error) {
	query := `
		SELECT chunk_index
		FROM %supload_chunks
		WHERE session_id = $1
		ORDER BY chunk_index ASC
	`

	sqlStr := r.prefixSchema(query)
	var indexes []int
	err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &indexes, sqlStr, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk indexes: %w", err)
	}
	return indexes, nil
}

// ChunksInOrder returns the full chunk rows of a session ordered by index
func (r *postgresRepository) ChunksInOrder(ctx context.Context, sessionID string) ([]*models.Chunk, error) {
	query := `
		SELECT session_id, chunk_index, total_chunks, file_name, mime_type, gym_slug, gym_name, folder_id, upload_id, slot_name, payload, received_at
		FROM %supload_chunks
		WHERE session_id = $1
		ORDER BY chunk_index ASC
	`

	sqlStr := r.prefixSchema(query)
	var chunks []*models.Chunk
	err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &chunks, sqlStr, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return chunks, nil
}

// CompleteSessionsForUpload returns complete sessions tagged with an upload id
func (r *postgresRepository) CompleteSessionsForUpload(ctx context.Context, uploadID string) ([]string, error) {
	query := `
		SELECT session_id
		FROM %supload_chunks
		WHERE upload_id = $1
		GROUP BY session_id
		HAVING COUNT(*) = MAX(total_chunks) AND MAX(total_chunks) > 0
	`

	sqlStr := r.prefixSchema(query)
	var sessionIDs []string
	err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &sessionIDs, sqlStr, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complete sessions: %w", err)
	}
	return sessionIDs, nil
}

// PurgeSession deletes every chunk row of a session
func (r *postgresRepository) PurgeSession(ctx context.Context, sessionID string) error {
	query := `
		DELETE FROM %supload_chunks
		WHERE session_id = $1
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	_, err := exec.ExecContext(ctx, sqlStr, sessionID)
	if err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}
	return nil
}

// DeleteIdleSessions removes sessions whose newest chunk predates cutoff.
// The HAVING clause re-checks last activity inside the statement, so a
// chunk arriving while the sweep runs keeps its session alive.
func (r *postgresRepository) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM %supload_chunks
		WHERE session_id IN (
			SELECT session_id
			FROM %supload_chunks
			GROUP BY session_id
			HAVING MAX(received_at) < $1
		)
	`

	exec := r.getExecutor(ctx)
	sqlStr := query
	if r.schema != "" {
		sqlStr = fmt.Sprintf(query, r.schema+".", r.schema+".")
	} else {
		sqlStr = fmt.Sprintf(query, "", "")
	}

	result, err := exec.ExecContext(ctx, sqlStr, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted chunk rows: %w", err)
	}
	return rows, nil
}
