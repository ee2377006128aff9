package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// RequestBodyValidator enforces a maximum request body size for write
// methods and restores the body for the handler after reading it once,
// since Content-Length can be absent or wrong.
func RequestBodyValidator(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip GET, HEAD, DELETE (no body)
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "DELETE" {
			c.Next()
			return
		}

		if c.Request.ContentLength > 0 && c.Request.ContentLength > maxBodyBytes {
			err := &ErrRequestTooLarge{
				Err: errors.New("request body exceeds maximum size limit"),
			}
			requestID := GetRequestID(c)
			slog.With("request_id", requestID).Warn("request_too_large",
				"content_length", c.Request.ContentLength,
				"max_bytes", maxBodyBytes,
			)
			c.Error(err)
			c.AbortWithStatusJSON(413, NewErrorPayload(413,
				err.Error(),
				requestID,
			).WithDetails(map[string]any{
				"max_bytes": maxBodyBytes,
				"received":  c.Request.ContentLength,
			}))
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			wrapped := &ErrBadRequest{Err: err}
			requestID := GetRequestID(c)
			slog.With("request_id", requestID).Warn("failed_to_read_body", "error", err)
			c.Error(wrapped)
			c.AbortWithStatusJSON(400, NewErrorPayload(400, wrapped.Error(), requestID))
			return
		}

		if int64(len(body)) > maxBodyBytes {
			wrapped := &ErrRequestTooLarge{
				Err: errors.New("request body exceeds maximum size limit"),
			}
			requestID := GetRequestID(c)
			slog.With("request_id", requestID).Warn("request_too_large",
				"body_bytes", len(body),
				"max_bytes", maxBodyBytes,
			)
			c.Error(wrapped)
			c.AbortWithStatusJSON(413, NewErrorPayload(413, wrapped.Error(), requestID))
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
