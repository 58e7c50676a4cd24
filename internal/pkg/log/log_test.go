package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", getRequestID(ctx))
}

func TestGetRequestID_EmptyWithoutValue(t *testing.T) {
	assert.Equal(t, "", getRequestID(context.Background()))
}

func TestFormatLog(t *testing.T) {
	assert.Equal(t, "[INFO] [req_id=r1] hello world", formatLog("INFO", "r1", "hello %s", "world"))
	assert.Equal(t, "[WARN] bare", formatLog("WARN", "", "bare"))
}
