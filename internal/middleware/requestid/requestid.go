package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
)

const (
	// HeaderRequestID is the HTTP header name for request ID
	HeaderRequestID = "X-Request-ID"
	// ContextKeyRequestID is the key used to store request ID in Fiber context
	ContextKeyRequestID = "request_id"
)

// New creates a middleware that generates or uses an existing X-Request-ID header
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			if id, err := uuid.NewV4(); err == nil {
				requestID = id.String()
			} else {
				// Entropy exhaustion is not worth failing the request;
				// correlation degrades instead.
				requestID = "unavailable"
			}
		}

		c.Locals(ContextKeyRequestID, requestID)
		c.Set(HeaderRequestID, requestID)

		return c.Next()
	}
}

// GetRequestID retrieves the request ID from Fiber context
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
