// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package provider abstracts the destination for assembled files and
// manifests. Two backends exist: the resumable cold-storage API and an
// S3-compatible bucket.
package provider

import (
	"context"
	"fmt"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
)

// PutRequest describes one blob headed for the destination.
type PutRequest struct {
	Name     string
	MimeType string
	FolderID string
	Content  []byte
}

// BlobProvider writes a blob and returns its destination file id.
type BlobProvider interface {
	Put(ctx context.Context, req *PutRequest) (string, error)
}

// New selects the provider named in configuration.
func New(cfg *platformconfig.StorageConfig, bridge *drive.Client) (BlobProvider, error) {
	switch cfg.Provider {
	case "drive":
		return NewDriveProvider(bridge), nil
	case "r2":
		return NewR2Provider(&cfg.R2)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
