// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
	"github.com/contentjoy/content-approval-app-sub001/transfers/models"
)

// TransferService orchestrates resumable transfers to cold storage.
type TransferService interface {
	// Start dedupes against the destination folder, then initiates a
	// resumable session when no identical file exists.
	Start(ctx context.Context, req *models.StartTransferRequest) (*models.StartTransferResponse, error)

	// PutRange forwards one sequential slice to the session URL and, on
	// completion, records the part for reconciliation when tagged.
	PutRange(ctx context.Context, req *models.PutRangeRequest) (*models.PutRangeResponse, error)

	// Verify checks destination presence by name and exact size.
	Verify(ctx context.Context, folderID, name string, sizeBytes int64) (*models.VerifyResponse, error)
}

// ResumableBridge is the slice of the cold-storage client this service
// needs. drive.Client satisfies it; tests substitute fakes.
type ResumableBridge interface {
	InitResumable(ctx context.Context, meta *drive.FileMeta) (string, error)
	PutRange(ctx context.Context, uploadURL string, start, end, total int64, payload []byte, mime string) (*drive.PutResult, error)
	Verify(ctx context.Context, folderID, name string, sizeBytes int64) (*drive.VerifyResult, error)
}

// PartRecorder persists a completed transfer as one slot of an upload so
// finalization can reconcile it later.
type PartRecorder interface {
	RecordPart(ctx context.Context, uploadID, slotName, fileName, storageFileID string, sizeBytes int64, mimeType string) error
}
