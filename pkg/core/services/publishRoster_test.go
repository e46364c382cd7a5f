package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// mockPublisher records the published roster
type mockPublisher struct {
	spreadsheetID string
	published     *sheetsclient.PublishedRoster
	err           error
}

func (m *mockPublisher) PublishRoster(spreadsheetID string, roster *sheetsclient.PublishedRoster) error {
	if m.err != nil {
		return m.err
	}
	m.spreadsheetID = spreadsheetID
	m.published = roster
	return nil
}

func TestBuildPublishedRoster(t *testing.T) {
	store := viewFixture(t)
	// assignment for a worker the store does not know
	require.NoError(t, store.ReplaceAssignments(t.Context(), []string{"2025-03-03"}, []db.Assignment{
		{ID: "a5", WorkerID: "ghost", Date: "2025-03-03", Location: "A", Shift: "Morning"},
	}))

	published, err := BuildPublishedRoster(t.Context(), store, zap.NewNop(), "2025-03-01", "2025-03-03")
	require.NoError(t, err)

	assert.Equal(t, []sheetsclient.PublishedRosterRow{
		{Date: "2025-03-01", Location: "A", Shift: "Night", Workers: []string{"Name w1"}},
		{Date: "2025-03-01", Location: "B", Shift: "Morning", Workers: []string{"Name w1"}},
		{Date: "2025-03-02", Location: "A", Shift: "Afternoon", Workers: []string{"Name w1", "Name w2"}, OnLeave: []string{"Name w1"}},
		{Date: "2025-03-03", Location: "A", Shift: "Morning", Workers: []string{"ghost"}},
	}, published.Rows)
}

func TestPublishRoster(t *testing.T) {
	store := viewFixture(t)
	publisher := &mockPublisher{}

	published, err := PublishRoster(t.Context(), store, publisher, zap.NewNop(), "sheet-1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", publisher.spreadsheetID)
	assert.Same(t, published, publisher.published)
	assert.Equal(t, "2025-03-01", published.StartDate)
}

func TestPublishRoster_PublisherFailure(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("403 forbidden")}

	_, err := PublishRoster(t.Context(), viewFixture(t), publisher, zap.NewNop(), "sheet-1", "2025-03-01", "2025-03-02")
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))
}
