package excel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"questkit/domain/quest"
	"questkit/models"
)

func TestExportSessionWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	exporter := NewSessionExporter(dir)

	session := models.NewExperimentSession("pilot", quest.DefaultParams(), quest.PolicyQuantile)
	trials := []*models.TrialRecord{
		models.NewTrialRecord(session.ID, 0, quest.Trial{Intensity: 0.9, Response: 1}),
		models.NewTrialRecord(session.ID, 1, quest.Trial{Intensity: 1.0, Response: 0}),
	}
	estimates := &models.SessionEstimates{
		SessionID:  session.ID,
		TrialCount: 2,
		Mean:       0.87,
		SD:         1.1,
	}

	path, err := exporter.ExportSession(context.Background(), session, trials, estimates)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trials")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two trials
	assert.Equal(t, "Seq", rows[0][0])
	assert.Equal(t, "0.9", rows[1][1])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestExportSessionHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exporter := NewSessionExporter(t.TempDir())
	session := models.NewExperimentSession("", quest.DefaultParams(), quest.PolicyQuantile)
	_, err := exporter.ExportSession(ctx, session, nil, &models.SessionEstimates{})
	require.Error(t, err)
}
