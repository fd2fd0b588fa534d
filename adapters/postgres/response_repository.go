package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"goethos/domain/survey"
	"goethos/internal/errors"
	"goethos/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ResponseRepositoryImpl implements ports.ResponseReader for PostgreSQL and
// adds the bulk import used by the migrate command.
type ResponseRepositoryImpl struct {
	db *sqlx.DB
}

var _ ports.ResponseReader = (*ResponseRepositoryImpl)(nil)

// NewResponseRepository creates a new PostgreSQL response repository
func NewResponseRepository(db *sqlx.DB) *ResponseRepositoryImpl {
	return &ResponseRepositoryImpl{db: db}
}

// SessionResponses returns a session's responses ordered by creation time
func (r *ResponseRepositoryImpl) SessionResponses(ctx context.Context, sessionID uuid.UUID, filters ports.ResponseFilters) (survey.Responses, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM survey_sessions WHERE id = $1)
	`, sessionID); err != nil {
		return nil, errors.DatabaseError("check session", err)
	}
	if !exists {
		return nil, errors.NotFound(fmt.Sprintf("session %s", sessionID))
	}

	query := `
		SELECT id, session_id, dilemma_id, chosen_option, reasoning, domain,
		       perceived_difficulty, response_time_ms, created_at
		FROM survey_responses
		WHERE session_id = $1`
	args := []interface{}{sessionID}
	if filters.Domain != "" {
		args = append(args, filters.Domain)
		query += fmt.Sprintf(" AND domain = $%d", len(args))
	}
	query += " ORDER BY created_at, id"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var responses survey.Responses
	if err := r.db.SelectContext(ctx, &responses, query, args...); err != nil {
		return nil, errors.DatabaseError("select responses", err)
	}
	if len(responses) == 0 {
		return nil, errors.NotFound(fmt.Sprintf("responses for session %s", sessionID))
	}
	return responses, nil
}

// ListSessions returns sessions that have at least one response
func (r *ResponseRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT s.id
		FROM survey_sessions s
		WHERE EXISTS (SELECT 1 FROM survey_responses r WHERE r.session_id = s.id)
		ORDER BY s.id`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, errors.DatabaseError("list sessions", err)
	}
	return ids, nil
}

// GetResponse retrieves a single response by ID
func (r *ResponseRepositoryImpl) GetResponse(ctx context.Context, id uuid.UUID) (*survey.Response, error) {
	var resp survey.Response
	err := r.db.GetContext(ctx, &resp, `
		SELECT id, session_id, dilemma_id, chosen_option, reasoning, domain,
		       perceived_difficulty, response_time_ms, created_at
		FROM survey_responses
		WHERE id = $1
	`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("response %s", id))
	}
	if err != nil {
		return nil, errors.DatabaseError("get response", err)
	}
	return &resp, nil
}

// ImportResponses upserts sessions and responses in one transaction. Rows
// that already exist are left untouched, so re-running an import is safe.
func (r *ResponseRepositoryImpl) ImportResponses(ctx context.Context, responses survey.Responses) (int, error) {
	if err := responses.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DatabaseError("begin import", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	seen := make(map[uuid.UUID]bool)
	for _, resp := range responses {
		if !seen[resp.SessionID] {
			seen[resp.SessionID] = true
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO survey_sessions (id) VALUES ($1)
				ON CONFLICT (id) DO NOTHING
			`, resp.SessionID); err != nil {
				return 0, errors.DatabaseError("insert session", err)
			}
		}

		if resp.ID == uuid.Nil {
			resp.ID = uuid.New()
		}
		if resp.CreatedAt.IsZero() {
			resp.CreatedAt = time.Now().UTC()
		}
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO survey_responses (id, session_id, dilemma_id, chosen_option, reasoning, domain,
				perceived_difficulty, response_time_ms, created_at)
			VALUES (:id, :session_id, :dilemma_id, :chosen_option, :reasoning, :domain,
				:perceived_difficulty, :response_time_ms, :created_at)
			ON CONFLICT (id) DO NOTHING
		`, resp)
		if err != nil {
			return 0, errors.DatabaseError("insert response", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.DatabaseError("commit import", err)
	}
	return inserted, nil
}
