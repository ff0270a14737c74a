// Package google mirrors month reports to a Google Spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Reports"); the current year is
	// prefixed so each year gets its own tab.
	reportsBase string
}

var _ ports.ReportWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS (ADC).
// Optional: GOOGLE_REPORTS_SHEET_NAME (default "Reports").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportsBase := strings.TrimSpace(os.Getenv("GOOGLE_REPORTS_SHEET_NAME"))
	if reportsBase == "" {
		reportsBase = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportsBase:   reportsBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return gsheet.NewService(ctx, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return gsheet.NewService(ctx, goption.WithCredentialsJSON(data))
	default:
		// Fall back to Application Default Credentials.
		return gsheet.NewService(ctx)
	}
}

// WriteMonthReport replaces the owner's block for one month: every prior
// row for (owner, month) is cleared from the year's tab, then the new
// per-category rows plus a total row are appended.
func (c *Client) WriteMonthReport(ctx context.Context, ownerID int64, overview core.MonthOverview) error {
	sheetName := yearPrefixedName(c.reportsBase, time.Now().Year())

	if err := c.clearMonthRows(ctx, sheetName, ownerID, overview.Month); err != nil {
		return fmt.Errorf("clear month rows: %w", err)
	}

	values := make([][]any, 0, len(overview.ByCategory)+1)
	for _, cat := range overview.ByCategory {
		values = append(values, []any{ownerID, string(overview.Month), cat.Name, cat.Amount.String()})
	}
	values = append(values, []any{ownerID, string(overview.Month), "TOTAL", overview.Total.String()})

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, sheetName+"!A:D", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append report rows: %w", err)
	}
	return nil
}

// clearMonthRows blanks existing rows for (owner, month). Rows are
// blanked, not deleted, to avoid shifting other owners' blocks mid-write.
func (c *Client) clearMonthRows(ctx context.Context, sheetName string, ownerID int64, month core.MonthKey) error {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, sheetName+"!A:D").
		Context(ctx).
		Do()
	if err != nil {
		// A missing tab means nothing to clear; Append will create it.
		if strings.Contains(err.Error(), "Unable to parse range") {
			return nil
		}
		return fmt.Errorf("read existing rows: %w", err)
	}

	owner := fmt.Sprintf("%d", ownerID)
	for i, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) != owner || fmt.Sprint(row[1]) != string(month) {
			continue
		}
		rng := fmt.Sprintf("%s!A%d:D%d", sheetName, i+1, i+1)
		_, err := c.svc.Spreadsheets.Values.
			Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("clear row %d: %w", i+1, err)
		}
	}
	return nil
}

func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}
