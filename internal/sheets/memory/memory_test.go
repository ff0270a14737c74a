package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestWriteMonthReportReplaces(t *testing.T) {
	store := New()
	ctx := context.Background()
	month := core.MonthKey("2026-03")

	first := core.MonthOverview{Month: month, Total: core.Money{Cents: 1000}}
	if err := store.WriteMonthReport(ctx, 1, first); err != nil {
		t.Fatalf("WriteMonthReport() error = %v", err)
	}
	second := core.MonthOverview{Month: month, Total: core.Money{Cents: 2500}}
	if err := store.WriteMonthReport(ctx, 1, second); err != nil {
		t.Fatalf("WriteMonthReport() second call error = %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	got, ok := store.Report(1, month)
	if !ok {
		t.Fatal("report missing")
	}
	if got.Total.Cents != 2500 {
		t.Errorf("total = %d, want 2500", got.Total.Cents)
	}

	if _, ok := store.Report(2, month); ok {
		t.Error("report leaked across owners")
	}
}
