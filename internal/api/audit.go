package api

import (
	"log/slog"
	"net/http"

	"github.com/ebrhq/backoffice/internal/ratelimit"
)

// auditLog emits a structured audit log entry for a session mutation.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ratelimit.ClientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if c := ConsoleFromContext(r.Context()); c != nil {
		attrs = append(attrs, "session", c.ID)
		if v := c.Flow.View(); v.User != nil {
			attrs = append(attrs, "user_id", v.User.ID, "user_email", v.User.Email)
		}
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
