// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"
)

// Upload is one logical gym upload: a named set of file slots that is
// finalized into a manifest once every expected slot has a stored part.
type Upload struct {
	UploadID         string     `db:"upload_id" json:"uploadId"`
	GymSlug          string     `db:"gym_slug" json:"gymSlug"`
	GymName          string     `db:"gym_name" json:"gymName"`
	FolderID         string     `db:"folder_id" json:"folderId"`
	ExpectedFiles    int        `db:"expected_files" json:"expectedFiles"`
	Status           string     `db:"status" json:"status"`
	ManifestFileID   string     `db:"manifest_file_id" json:"manifestFileId,omitempty"`
	ManifestFileName string     `db:"manifest_file_name" json:"manifestFileName,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt      *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// UploadFile is one stored part of an upload. (upload_id, slot_name) is
// unique; re-recording a slot replaces the previous part.
type UploadFile struct {
	UploadID      string    `db:"upload_id" json:"uploadId"`
	SlotName      string    `db:"slot_name" json:"slotName"`
	FileName      string    `db:"file_name" json:"fileName"`
	StorageFileID string    `db:"storage_file_id" json:"storageFileId"`
	SizeBytes     int64     `db:"size_bytes" json:"sizeBytes"`
	MimeType      string    `db:"mime_type" json:"mimeType"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Manifest is the JSON document written to cold storage at finalization.
type Manifest struct {
	UploadID   string         `json:"uploadId"`
	GymSlug    string         `json:"gymSlug"`
	GymName    string         `json:"gymName"`
	CreatedAt  time.Time      `json:"createdAt"`
	TotalFiles int            `json:"totalFiles"`
	Parts      []ManifestPart `json:"parts"`
}

// ManifestPart is one file entry in the manifest.
type ManifestPart struct {
	SlotName  string `json:"slotName"`
	FileName  string `json:"fileName"`
	FileID    string `json:"fileId"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
}

// RegisterUploadRequest declares a new upload and its expected slot count.
type RegisterUploadRequest struct {
	UploadID      string `json:"uploadId"`
	GymSlug       string `json:"gymSlug"`
	GymName       string `json:"gymName"`
	FolderID      string `json:"folderId"`
	ExpectedFiles int    `json:"expectedFiles"`
}

// FinalizeResponse summarizes a finalized upload.
type FinalizeResponse struct {
	OK               bool           `json:"ok"`
	UploadID         string         `json:"uploadId"`
	Status           string         `json:"status"`
	ManifestFileID   string         `json:"manifestFileId"`
	ManifestFileName string         `json:"manifestFileName"`
	TotalFiles       int            `json:"totalFiles"`
	Parts            []ManifestPart `json:"parts"`
}
