// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

// TransferState tracks where a single file transfer sits in the resumable
// protocol. Failed and Completed are terminal.
type TransferState string

const (
	StateNotStarted        TransferState = "not_started"
	StateSessionInitiating TransferState = "session_initiating"
	StateTransferring      TransferState = "transferring"
	StateCompleted         TransferState = "completed"
	StateFailed            TransferState = "failed"
)

// StartTransferRequest asks for a new resumable session at cold storage.
type StartTransferRequest struct {
	FileName  string `json:"filename"`
	MimeType  string `json:"mime"`
	SizeBytes int64  `json:"sizeBytes"`
	FolderID  string `json:"parentId"`
}

// StartTransferResponse carries either a short-circuit dedupe hit or the
// opaque upload URL for subsequent ranged PUTs.
type StartTransferResponse struct {
	Deduped   bool          `json:"deduped"`
	FileID    string        `json:"fileId,omitempty"`
	UploadURL string        `json:"uploadUrl,omitempty"`
	State     TransferState `json:"state"`
}

// PutRangeRequest proxies one sequential slice to the session URL.
// Chunk is base64 so browser clients can post it as JSON.
type PutRangeRequest struct {
	UploadURL  string `json:"uploadUrl"`
	Chunk      string `json:"chunkBase64"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
	TotalBytes int64  `json:"total"`
	MimeType   string `json:"mime"`

	// Optional reconciliation tags. When both are present a completed
	// transfer is recorded as an upload part.
	UploadID string `json:"uploadId"`
	SlotName string `json:"slotName"`
	FileName string `json:"fileName"`
}

// PutRangeResponse reports the outcome of one ranged PUT.
type PutRangeResponse struct {
	OK             bool          `json:"ok"`
	Continued      bool          `json:"continued,omitempty"`
	ConfirmedRange string        `json:"range,omitempty"`
	Completed      bool          `json:"completed,omitempty"`
	FileID         string        `json:"fileId,omitempty"`
	Attempts       int           `json:"attempts"`
	State          TransferState `json:"state"`
}

// VerifyResponse reports presence and size match for a named file, or the
// result of a bare listing probe when no name was given.
type VerifyResponse struct {
	Exists    bool   `json:"exists"`
	Match     bool   `json:"match"`
	FileID    string `json:"fileId,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}

// ProbeResponse is the degenerate verify: can we list the folder at all.
type ProbeResponse struct {
	OK      bool `json:"ok"`
	CanList bool `json:"canList"`
}
