package excel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"questkit/models"
	"questkit/ports"
)

// SessionExporter writes a session's trial log and posterior estimates to an
// xlsx workbook, one file per session.
type SessionExporter struct {
	dir string
}

// NewSessionExporter creates an exporter writing workbooks into dir
func NewSessionExporter(dir string) ports.SessionExporter {
	return &SessionExporter{dir: dir}
}

// ExportSession writes the workbook and returns its path
func (e *SessionExporter) ExportSession(ctx context.Context, session *models.ExperimentSession, trials []*models.TrialRecord, estimates *models.SessionEstimates) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const trialSheet = "Trials"
	f.SetSheetName("Sheet1", trialSheet)

	headers := []string{"Seq", "Intensity", "Response", "Recorded At"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(trialSheet, cell, h); err != nil {
			return "", err
		}
	}
	for row, tr := range trials {
		values := []interface{}{tr.Seq, tr.Intensity, tr.Response, tr.CreatedAt.Format("2006-01-02 15:04:05")}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(trialSheet, cell, v); err != nil {
				return "", err
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return "", err
	}
	summary := [][2]interface{}{
		{"Session", session.ID.String()},
		{"Label", session.Label},
		{"State", string(session.State)},
		{"Policy", string(session.Policy)},
		{"Prior mean", session.Params.PriorMean},
		{"Prior SD", session.Params.PriorSD},
		{"Criterion", session.Params.Criterion},
		{"Beta", session.Params.Beta},
		{"Delta", session.Params.Delta},
		{"Gamma", session.Params.Gamma},
		{"Grain", session.Params.Grain},
		{"Trials", estimates.TrialCount},
		{"Threshold mean", estimates.Mean},
		{"Threshold SD", estimates.SD},
		{"Threshold mode", estimates.Mode},
		{"Threshold median", estimates.Median},
	}
	for row, kv := range summary {
		keyCell, err := excelize.CoordinatesToCellName(1, row+1)
		if err != nil {
			return "", err
		}
		valCell, err := excelize.CoordinatesToCellName(2, row+1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(summarySheet, keyCell, kv[0]); err != nil {
			return "", err
		}
		if err := f.SetCellValue(summarySheet, valCell, kv[1]); err != nil {
			return "", err
		}
	}

	path := filepath.Join(e.dir, fmt.Sprintf("session_%s.xlsx", session.ID.String()))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
