// Package worker consumes month-changed events and mirrors the affected
// months to the configured report sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ReportWorker rebuilds one owner's month overview from the database and
// writes it through the report port. Events carry only coordinates, so
// reprocessing the same event is harmless.
type ReportWorker struct {
	storage *storage.SQLiteRepository
	reports sheets.ReportWriter
}

func NewReportWorker(repo *storage.SQLiteRepository, reports sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{storage: repo, reports: reports}
}

// HandleMonthChanged processes one month-changed event.
func (w *ReportWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	slog.InfoContext(ctx, "Processing month changed event",
		"owner_id", msg.OwnerID,
		"month", msg.Month,
		"kind", msg.Kind)

	if _, err := core.ParseMonthKey(string(msg.Month)); err != nil {
		// A malformed month can never succeed; drop it rather than requeue.
		slog.ErrorContext(ctx, "Dropping event with invalid month",
			"month", msg.Month,
			"error", err)
		return nil
	}

	return w.MirrorMonth(ctx, msg.OwnerID, msg.Month)
}

// ResyncRecent re-mirrors every month touched since the cutoff. It backs
// up the event stream: a lost or unacked event is repaired on the next
// sweep. Per-month failures are logged and skipped so one bad month does
// not starve the rest.
func (w *ReportWorker) ResyncRecent(ctx context.Context, since time.Time) error {
	months, err := w.storage.ListRecentlyChangedMonths(ctx, since)
	if err != nil {
		return fmt.Errorf("list changed months: %w", err)
	}

	for _, om := range months {
		if err := w.MirrorMonth(ctx, om.OwnerID, om.Month); err != nil {
			slog.ErrorContext(ctx, "Failed to re-mirror month",
				"owner_id", om.OwnerID,
				"month", om.Month,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Resync sweep complete", "months", len(months), "since", since)
	return nil
}

// MirrorMonth rebuilds and writes the overview for one (owner, month).
func (w *ReportWorker) MirrorMonth(ctx context.Context, ownerID int64, month core.MonthKey) error {
	start, end := month.Bounds()
	expenses, err := w.storage.ListTransactionsInRange(ctx, ownerID, start, end)
	if err != nil {
		return fmt.Errorf("load month transactions: %w", err)
	}

	overview := core.BuildMonthOverview(month, expenses)
	if err := w.reports.WriteMonthReport(ctx, ownerID, overview); err != nil {
		return fmt.Errorf("write month report: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored month report",
		"owner_id", ownerID,
		"month", month,
		"total_cents", overview.Total.Cents,
		"categories", len(overview.ByCategory))
	return nil
}
