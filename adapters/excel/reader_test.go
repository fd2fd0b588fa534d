package excel

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "goethos/internal/errors"
	"goethos/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	sessionA = uuid.MustParse("2b7c1f0e-4f0b-4d8e-9a57-8d7a0f6f1a11")
	sessionB = uuid.MustParse("9e3d6a4c-1c2b-4c55-b0c1-3f9d2e7a8b22")
)

func writeXLSX(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "responses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestResponseReader_XLSX(t *testing.T) {
	path := writeXLSX(t, [][]interface{}{
		{"Session_ID", "dilemma_id", "chosen_option", "reasoning", "domain", "perceived_difficulty", "response_time_ms"},
		{sessionA.String(), "d1", "A", "It is my duty", "medical", "4", "1200"},
		{sessionA.String(), "d2", "B", "care for family", "business", "7", ""},
		{sessionB.String(), "d1", "C", "fair for everyone", "medical", "", "800"},
	})

	r := NewResponseReader(path, nil)
	ctx := context.Background()

	rs, err := r.SessionResponses(ctx, sessionA, ports.ResponseFilters{})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "A", rs[0].ChosenOption)
	assert.Equal(t, 4, rs[0].PerceivedDifficulty)
	assert.Equal(t, int64(1200), rs[0].ResponseTimeMs)
	assert.NotEqual(t, uuid.Nil, rs[0].ID)

	filtered, err := r.SessionResponses(ctx, sessionA, ports.ResponseFilters{Domain: "business"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	ids, err := r.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{sessionA, sessionB}, ids)

	_, err = r.SessionResponses(ctx, uuid.New(), ports.ResponseFilters{})
	assert.True(t, stderrors.Is(err, apperrors.ErrNotFound))
}

func TestResponseReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.csv")
	content := "session_id,chosen_option,reasoning,created_at\n" +
		sessionB.String() + ",A,\"rules, duty\",2026-03-01T10:00:00Z\n" +
		",,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	all, err := NewResponseReader(path, nil).ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "rules, duty", all[0].Reasoning)
	assert.Equal(t, 2026, all[0].CreatedAt.Year())
}

func TestResponseReader_Errors(t *testing.T) {
	_, err := NewResponseReader(filepath.Join(t.TempDir(), "missing.xlsx"), nil).ReadAll()
	assert.True(t, stderrors.Is(err, apperrors.ErrNotFound))

	noColumn := writeXLSX(t, [][]interface{}{{"reasoning"}, {"x"}})
	_, err = NewResponseReader(noColumn, nil).ReadAll()
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))

	badDifficulty := writeXLSX(t, [][]interface{}{
		{"session_id", "chosen_option", "perceived_difficulty"},
		{sessionA.String(), "A", "12"},
	})
	_, err = NewResponseReader(badDifficulty, nil).ReadAll()
	assert.True(t, stderrors.Is(err, apperrors.ErrInvalidInput))
}
