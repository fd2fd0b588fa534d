package ports

import (
	"context"

	"goethos/domain/survey"

	"github.com/google/uuid"
)

// ResponseFilters narrows a response query
type ResponseFilters struct {
	Domain string // Empty matches every domain
	Limit  int    // 0 means no limit
}

// ResponseReader provides read-only access to survey responses. The survey
// application owns the schema; goethos never writes through this port.
type ResponseReader interface {
	// SessionResponses returns a session's responses in answer order.
	// An unknown session yields NOT_FOUND.
	SessionResponses(ctx context.Context, sessionID uuid.UUID, filters ResponseFilters) (survey.Responses, error)

	// ListSessions returns session IDs that have at least one response
	ListSessions(ctx context.Context, limit int) ([]uuid.UUID, error)
}
