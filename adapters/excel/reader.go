package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"goethos/domain/survey"
	"goethos/internal/errors"
	"goethos/internal/logging"
	"goethos/ports"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column headers recognised in exported response sheets. Matching is case
// insensitive and ignores surrounding whitespace.
const (
	ColumnID                  = "id"
	ColumnSessionID           = "session_id"
	ColumnDilemmaID           = "dilemma_id"
	ColumnChosenOption        = "chosen_option"
	ColumnReasoning           = "reasoning"
	ColumnDomain              = "domain"
	ColumnPerceivedDifficulty = "perceived_difficulty"
	ColumnResponseTimeMs      = "response_time_ms"
	ColumnCreatedAt           = "created_at"
)

var requiredColumns = []string{ColumnSessionID, ColumnChosenOption}

// ResponseReader loads survey responses from an .xlsx or .csv export and
// serves them through ports.ResponseReader. The file is read once, lazily.
type ResponseReader struct {
	filePath  string
	fileType  string // "xlsx" or "csv"
	sheet     string
	logger    *zap.Logger
	responses survey.Responses
	loaded    bool
}

var _ ports.ResponseReader = (*ResponseReader)(nil)

// NewResponseReader creates a reader; the file type follows the extension
func NewResponseReader(filePath string, logger *zap.Logger) *ResponseReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &ResponseReader{
		filePath: filePath,
		fileType: fileType,
		sheet:    "Sheet1",
		logger:   logging.OrNop(logger),
	}
}

// WithSheet selects the worksheet for xlsx files (default Sheet1)
func (r *ResponseReader) WithSheet(sheet string) *ResponseReader {
	r.sheet = sheet
	return r
}

// ReadAll returns every response in file order
func (r *ResponseReader) ReadAll() (survey.Responses, error) {
	if r.loaded {
		return r.responses, nil
	}

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	responses, err := parseRows(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", r.filePath)
	}

	r.logger.Info("loaded survey responses",
		zap.String("file", r.filePath),
		zap.String("type", r.fileType),
		zap.Int("responses", len(responses)),
		zap.Duration("elapsed", time.Since(start)))

	r.responses = responses
	r.loaded = true
	return responses, nil
}

// SessionResponses implements ports.ResponseReader
func (r *ResponseReader) SessionResponses(_ context.Context, sessionID uuid.UUID, filters ports.ResponseFilters) (survey.Responses, error) {
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var out survey.Responses
	for _, resp := range all {
		if resp.SessionID != sessionID {
			continue
		}
		if filters.Domain != "" && resp.Domain != filters.Domain {
			continue
		}
		out = append(out, resp)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound(fmt.Sprintf("responses for session %s", sessionID))
	}
	return out, nil
}

// ListSessions implements ports.ResponseReader
func (r *ResponseReader) ListSessions(_ context.Context, limit int) ([]uuid.UUID, error) {
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, resp := range all {
		if !seen[resp.SessionID] {
			seen[resp.SessionID] = true
			ids = append(ids, resp.SessionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// readExcelRows reads all rows of the configured sheet
func (r *ResponseReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", r.sheet)
	}
	return rows, nil
}

// readCSVRows reads all CSV records
func (r *ResponseReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return rows, nil
}

// parseRows maps a header row plus data rows onto responses
func parseRows(rows [][]string) (survey.Responses, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.InvalidInputf("missing required column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	responses := make(survey.Responses, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}

		sessionID, err := uuid.Parse(cell(row, ColumnSessionID))
		if err != nil {
			return nil, errors.InvalidInputf("row %d: invalid session_id: %v", line, err)
		}

		resp := survey.Response{
			SessionID:    sessionID,
			DilemmaID:    cell(row, ColumnDilemmaID),
			ChosenOption: cell(row, ColumnChosenOption),
			Reasoning:    cell(row, ColumnReasoning),
			Domain:       cell(row, ColumnDomain),
		}

		if raw := cell(row, ColumnID); raw != "" {
			if resp.ID, err = uuid.Parse(raw); err != nil {
				return nil, errors.InvalidInputf("row %d: invalid id: %v", line, err)
			}
		} else {
			resp.ID = uuid.NewSHA1(sessionID, []byte(strconv.Itoa(line)))
		}
		if raw := cell(row, ColumnPerceivedDifficulty); raw != "" {
			if resp.PerceivedDifficulty, err = strconv.Atoi(raw); err != nil {
				return nil, errors.InvalidInputf("row %d: invalid perceived_difficulty %q", line, raw)
			}
		}
		if raw := cell(row, ColumnResponseTimeMs); raw != "" {
			if resp.ResponseTimeMs, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, errors.InvalidInputf("row %d: invalid response_time_ms %q", line, raw)
			}
		}
		if raw := cell(row, ColumnCreatedAt); raw != "" {
			if resp.CreatedAt, err = time.Parse(time.RFC3339, raw); err != nil {
				return nil, errors.InvalidInputf("row %d: invalid created_at %q", line, raw)
			}
		}

		if err := resp.Validate(); err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
