// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"
)

// Chunk represents one byte-range slice of a file buffered in the database.
// (session_id, chunk_index) is the primary key; a redelivered chunk replaces
// the stored payload instead of duplicating it.
type Chunk struct {
	SessionID   string    `db:"session_id" json:"sessionId"`
	ChunkIndex  int       `db:"chunk_index" json:"chunkIndex"`
	TotalChunks int       `db:"total_chunks" json:"totalChunks"`
	FileName    string    `db:"file_name" json:"fileName"`
	FileType    string    `db:"mime_type" json:"fileType"`
	GymSlug     string    `db:"gym_slug" json:"gymSlug"`
	GymName     string    `db:"gym_name" json:"gymName"`
	FolderID    string    `db:"folder_id" json:"folderId"`
	UploadID    string    `db:"upload_id" json:"uploadId"`
	SlotName    string    `db:"slot_name" json:"slotName"`
	Payload     []byte    `db:"payload" json:"-"`
	ReceivedAt  time.Time `db:"received_at" json:"receivedAt"`
}

// Session is the aggregate projection over the chunk rows of one session.
// Every field is derived by query; nothing here is maintained as a counter.
type Session struct {
	SessionID    string    `db:"session_id" json:"sessionId"`
	Received     int       `db:"received_chunks" json:"receivedChunks"`
	TotalChunks  int       `db:"total_chunks" json:"totalChunks"`
	FileName     string    `db:"file_name" json:"fileName"`
	FileType     string    `db:"mime_type" json:"fileType"`
	GymSlug      string    `db:"gym_slug" json:"gymSlug"`
	GymName      string    `db:"gym_name" json:"gymName"`
	FolderID     string    `db:"folder_id" json:"folderId"`
	UploadID     string    `db:"upload_id" json:"uploadId"`
	SlotName     string    `db:"slot_name" json:"slotName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	LastActivity time.Time `db:"last_activity" json:"lastActivity"`
}

// IsComplete reports whether every declared chunk has arrived.
func (s *Session) IsComplete() bool {
	return s.TotalChunks > 0 && s.Received == s.TotalChunks
}

// ChunkUploadRequest carries the multipart form fields of one chunk upload.
// The binary chunk itself arrives as the "chunk" file field.
type ChunkUploadRequest struct {
	SessionID   string `schema:"sessionId"`
	ChunkIndex  *int   `schema:"chunkIndex"`
	TotalChunks *int   `schema:"totalChunks"`
	FileName    string `schema:"originalFileName"`
	FileType    string `schema:"fileType"`
	GymSlug     string `schema:"gymSlug"`
	GymName     string `schema:"gymName"`
	FolderID    string `schema:"targetFolderId"`
	UploadID    string `schema:"uploadId"`
	SlotName    string `schema:"slotName"`
}

// ChunkUploadResponse is returned after each accepted chunk.
type ChunkUploadResponse struct {
	Success        bool   `json:"success"`
	SessionID      string `json:"sessionId"`
	ChunkIndex     int    `json:"chunkIndex"`
	ReceivedChunks int    `json:"receivedChunks"`
	TotalChunks    int    `json:"totalChunks"`
	IsComplete     bool   `json:"isComplete"`
	Message        string `json:"message"`
}

// SessionStatusResponse is the polling view of one session.
type SessionStatusResponse struct {
	SessionID      string    `json:"sessionId"`
	FileName       string    `json:"fileName"`
	FileType       string    `json:"fileType"`
	GymSlug        string    `json:"gymSlug"`
	GymName        string    `json:"gymName"`
	FolderID       string    `json:"folderId"`
	ReceivedChunks int       `json:"receivedChunks"`
	TotalChunks    int       `json:"totalChunks"`
	MissingChunks  []int     `json:"missingChunks,omitempty"`
	IsComplete     bool      `json:"isComplete"`
	LastActivity   time.Time `json:"lastActivity"`
}
