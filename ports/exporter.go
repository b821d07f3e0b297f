package ports

import (
	"context"

	"questkit/models"
)

// SessionExporter writes a session's trial log and estimates to an external
// artifact (e.g. a workbook) and returns its location.
type SessionExporter interface {
	ExportSession(ctx context.Context, session *models.ExperimentSession, trials []*models.TrialRecord, estimates *models.SessionEstimates) (string, error)
}
