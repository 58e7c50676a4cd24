// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/contentjoy/content-approval-app-sub001/internal/database/postgres"
	"github.com/contentjoy/content-approval-app-sub001/internal/types"
	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
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

// UpsertUpload creates or refreshes an upload row, never touching its
// completion state
func (r *postgresRepository) UpsertUpload(ctx context.Context, upload *models.Upload) error {
	query := `
		INSERT INTO %suploads (upload_id, gym_slug, gym_name, folder_id, expected_files, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (upload_id)
		DO UPDATE SET
			gym_slug = EXCLUDED.gym_slug,
			gym_name = EXCLUDED.gym_name,
			folder_id = EXCLUDED.folder_id,
			expected_files = EXCLUDED.expected_files
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	_, err := exec.ExecContext(ctx, sqlStr,
		upload.UploadID, upload.GymSlug, upload.GymName, upload.FolderID,
		upload.ExpectedFiles, upload.Status, upload.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert upload: %w", err)
	}
	return nil
}

// GetUpload returns nil (no error) for an unknown upload id
func (r *postgresRepository) GetUpload(ctx context.Context, uploadID string) (*models.Upload, error) {
	query := `
		SELECT upload_id, gym_slug, gym_name, folder_id, expected_files, status, manifest_file_id, manifest_file_name, created_at, completed_at
		FROM %suploads
		WHERE upload_id = $1
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	var upload models.Upload
	err := exec.QueryRowxContext(ctx, sqlStr, uploadID).StructScan(&upload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load upload: %w", err)
	}
	return &upload, nil
}

// UpsertPart records one part, replacing any previous row for the slot
func (r *postgresRepository) UpsertPart(ctx context.Context, part *models.UploadFile) error {
	query := `
		INSERT INTO %supload_files (upload_id, slot_name, file_name, storage_file_id, size_bytes, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (upload_id, slot_name)
		DO UPDATE SET
			file_name = EXCLUDED.file_name,
			storage_file_id = EXCLUDED.storage_file_id,
			size_bytes = EXCLUDED.size_bytes,
			mime_type = EXCLUDED.mime_type,
			created_at = EXCLUDED.created_at
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	_, err := exec.ExecContext(ctx, sqlStr,
		part.UploadID, part.SlotName, part.FileName, part.StorageFileID,
		part.SizeBytes, part.MimeType, part.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record part: %w", err)
	}
	return nil
}

// PartsForUpload returns the recorded parts ordered by slot name
func (r *postgresRepository) PartsForUpload(ctx context.Context, uploadID string) ([]*models.UploadFile, error) {
	query := `
		SELECT upload_id, slot_name, file_name, storage_file_id, size_bytes, mime_type, created_at
		FROM %supload_files
		WHERE upload_id = $1
		ORDER BY slot_name ASC
	`

	sqlStr := r.prefixSchema(query)
	var parts []*models.UploadFile
	err := sqlx.SelectContext(ctx, r.getExecutor(ctx), &parts, sqlStr, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	return parts, nil
}

// MarkComplete stores the manifest reference and completes the upload
func (r *postgresRepository) MarkComplete(ctx context.Context, uploadID, manifestFileID, manifestFileName string) error {
	query := `
		UPDATE %suploads
		SET status = $2, manifest_file_id = $3, manifest_file_name = $4, completed_at = NOW()
		WHERE upload_id = $1
	`

	exec := r.getExecutor(ctx)
	sqlStr := r.prefixSchema(query)
	result, err := exec.ExecContext(ctx, sqlStr, uploadID, types.UploadStatusComplete, manifestFileID, manifestFileName)
	if err != nil {
		return fmt.Errorf("failed to mark upload complete: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("upload %s not found", uploadID)
	}
	return nil
}
