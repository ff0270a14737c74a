// Package sheets defines the outbound port for mirroring month reports to
// a spreadsheet.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// ReportWriter mirrors one owner's month overview to an external sheet.
// Writes are idempotent per (owner, month): re-mirroring a month replaces
// what was written before.
type ReportWriter interface {
	WriteMonthReport(ctx context.Context, ownerID int64, overview core.MonthOverview) error
}
