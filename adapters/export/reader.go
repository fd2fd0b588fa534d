// Package export reads the survey application's JSON export. The export is
// loosely shaped (camelCase keys, optional fields, numbers sometimes encoded
// as strings), so fields are picked with gjson paths rather than decoded
// into fixed structs.
package export

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"goethos/domain/survey"
	"goethos/internal/errors"
	"goethos/ports"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Paths into the export document
const (
	sessionsPath     = "sessions"
	sessionIDPath    = "id"
	responsesPath    = "responses"
	responseIDPath   = "id"
	dilemmaIDPath    = "dilemmaId"
	choicePath       = "chosenOption"
	reasoningPath    = "reasoning"
	domainPath       = "domain"
	difficultyPath   = "perceivedDifficulty"
	responseTimePath = "responseTimeMs"
	createdAtPath    = "createdAt"
)

// Reader serves responses from an in-memory export document
type Reader struct {
	bySession map[uuid.UUID]survey.Responses
}

var _ ports.ResponseReader = (*Reader)(nil)

// Open reads and parses an export file
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("export file %s", path))
		}
		return nil, errors.Wrapf(err, "read export %s", path)
	}
	return Parse(data)
}

// Parse parses an export document
func Parse(data []byte) (*Reader, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.InvalidInput("export is not valid JSON")
	}
	sessions := gjson.GetBytes(data, sessionsPath)
	if !sessions.IsArray() {
		return nil, errors.InvalidInputf("export has no %q array", sessionsPath)
	}

	r := &Reader{bySession: make(map[uuid.UUID]survey.Responses)}
	var parseErr error
	sessions.ForEach(func(i, session gjson.Result) bool {
		sessionID, err := uuid.Parse(session.Get(sessionIDPath).String())
		if err != nil {
			parseErr = errors.InvalidInputf("session %d: invalid id: %v", i.Int(), err)
			return false
		}
		session.Get(responsesPath).ForEach(func(j, item gjson.Result) bool {
			resp, err := parseResponse(sessionID, item)
			if err != nil {
				parseErr = errors.Wrapf(err, "session %s response %d", sessionID, j.Int())
				return false
			}
			r.bySession[sessionID] = append(r.bySession[sessionID], resp)
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return r, nil
}

func parseResponse(sessionID uuid.UUID, item gjson.Result) (survey.Response, error) {
	resp := survey.Response{
		SessionID:           sessionID,
		DilemmaID:           item.Get(dilemmaIDPath).String(),
		ChosenOption:        item.Get(choicePath).String(),
		Reasoning:           item.Get(reasoningPath).String(),
		Domain:              item.Get(domainPath).String(),
		PerceivedDifficulty: int(item.Get(difficultyPath).Int()),
		ResponseTimeMs:      item.Get(responseTimePath).Int(),
	}

	if id := item.Get(responseIDPath); id.Exists() {
		parsed, err := uuid.Parse(id.String())
		if err != nil {
			return resp, errors.InvalidInputf("invalid response id: %v", err)
		}
		resp.ID = parsed
	} else {
		resp.ID = uuid.NewSHA1(sessionID, []byte(resp.DilemmaID+"|"+item.Raw))
	}

	if ts := item.Get(createdAtPath); ts.Exists() {
		t, err := time.Parse(time.RFC3339, ts.String())
		if err != nil {
			return resp, errors.InvalidInputf("invalid createdAt %q", ts.String())
		}
		resp.CreatedAt = t
	}

	if err := resp.Validate(); err != nil {
		return resp, err
	}
	return resp, nil
}

// SessionResponses implements ports.ResponseReader
func (r *Reader) SessionResponses(_ context.Context, sessionID uuid.UUID, filters ports.ResponseFilters) (survey.Responses, error) {
	all, ok := r.bySession[sessionID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("responses for session %s", sessionID))
	}
	var out survey.Responses
	for _, resp := range all {
		if filters.Domain != "" && resp.Domain != filters.Domain {
			continue
		}
		out = append(out, resp)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound(fmt.Sprintf("responses for session %s in domain %s", sessionID, filters.Domain))
	}
	return out, nil
}

// ListSessions implements ports.ResponseReader
func (r *Reader) ListSessions(_ context.Context, limit int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.bySession))
	for id, rs := range r.bySession {
		if len(rs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
