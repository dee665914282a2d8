package shared

import (
	"context"
	"log/slog"
	"net/http"
)

// Auditor is satisfied by *audit.Service.
type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit writes an audit event and only logs when that fails.
func RecordAudit(r *http.Request, auditor Auditor, actorID, requestID, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	if err := auditor.Record(r.Context(), actorID, action, entityType, entityID, requestID, ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "entityId", entityID, "err", err)
	}
}
