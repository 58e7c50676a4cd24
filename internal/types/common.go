package types

// HTTP Header Constants
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderContentRange  = "Content-Range"
	HeaderUploadLength  = "X-Upload-Content-Length"
	HeaderUploadType    = "X-Upload-Content-Type"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
)

// Upload status values shared across features
const (
	UploadStatusPending  = "pending"
	UploadStatusComplete = "complete"
)
