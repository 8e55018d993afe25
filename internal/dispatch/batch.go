package dispatch

import (
	"time"

	"github.com/mattjoyce/incomerelay/internal/report"
)

// Batch sources.
const (
	SourceMailgun      = "mailgun"
	SourceDirectUpload = "direct_upload"
)

// ReportTypeIncomeStatement is the only report type this service produces.
const ReportTypeIncomeStatement = "income_statement"

// BatchIDLayout formats batch ids from the processing time.
const BatchIDLayout = "20060102_150405"

// BatchID derives a batch id from t in UTC.
func BatchID(t time.Time) string {
	return t.UTC().Format(BatchIDLayout)
}

// Batch is the downstream payload for one processed report.
type Batch struct {
	BatchID     string                 `json:"batch_id"`
	Source      string                 `json:"source"`
	ReportType  string                 `json:"report_type"`
	Metadata    report.Metadata        `json:"metadata"`
	Categories  []report.Category      `json:"categories"`
	MonthlyData []report.MonthlyAmount `json:"monthly_data"`
	Totals      report.Totals          `json:"totals"`
}

// NewBatch builds a Batch from rep. The report's slices are shared, so rep
// must not be modified afterwards.
func NewBatch(batchID, source string, rep *report.Report) Batch {
	return Batch{
		BatchID:     batchID,
		Source:      source,
		ReportType:  ReportTypeIncomeStatement,
		Metadata:    rep.Metadata,
		Categories:  rep.Categories,
		MonthlyData: rep.MonthlyData,
		Totals:      rep.Totals,
	}
}
