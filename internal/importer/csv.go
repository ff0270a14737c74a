// Package importer turns CSV exports into transaction records. Parsing and
// categorization happen here; persisting the resulting records is the
// caller's job so partial failures stay visible per row.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/rules"
)

// DefaultMaxRows bounds an import so an oversized upload cannot stall a
// request.
const DefaultMaxRows = 5000

// Header aliases accepted per field, all compared lowercase.
var (
	dateHeaders        = []string{"date", "transaction_date", "datetime"}
	amountHeaders      = []string{"amount", "amount_usd", "value"}
	categoryHeaders    = []string{"category", "cat"}
	descriptionHeaders = []string{"description", "note"}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// Record is one successfully parsed row, ready to be persisted. Amount is
// always the absolute value; source sign information is discarded.
type Record struct {
	Date        time.Time
	Amount      core.Money
	Category    string
	Description string
}

// RowError reports why one row was skipped. Row numbers are 1-based over
// the whole file, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result summarizes an import. Errors alongside imported rows are normal;
// partial success is still success.
type Result struct {
	BatchID  string     `json:"batchId"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// Parser reads CSV rows into records, categorizing rows that arrive
// without a category.
type Parser struct {
	direction core.Direction
	ruleset   []core.SmartRule
	maxRows   int
}

// NewParser builds a parser for one direction. The ruleset is consulted
// for rows with a blank category; maxRows <= 0 selects DefaultMaxRows.
func NewParser(direction core.Direction, ruleset []core.SmartRule, maxRows int) *Parser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Parser{direction: direction, ruleset: ruleset, maxRows: maxRows}
}

// Parse consumes the whole CSV input. The header row is required; rows
// that fail to parse are collected into the result and skipped.
func (p *Parser) Parse(r io.Reader) ([]Record, Result, error) {
	result := Result{BatchID: uuid.NewString()}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, Result{}, core.Validationf("csv input is empty")
	}
	if err != nil {
		return nil, Result{}, core.Validationf("invalid csv header: %v", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, Result{}, err
	}

	var records []Record
	for row := 2; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: fmt.Sprintf("malformed row: %v", err)})
			continue
		}
		if row-1 > p.maxRows {
			return nil, Result{}, core.Validationf("import exceeds the %d row limit", p.maxRows)
		}

		rec, err := p.parseRow(cols, fields)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		records = append(records, rec)
		result.Imported++
	}
	return records, result, nil
}

type columns struct {
	date        int
	amount      int
	category    int
	description int
}

func mapHeader(header []string) (columns, error) {
	cols := columns{date: -1, amount: -1, category: -1, description: -1}
	for i, name := range header {
		switch normalized := strings.ToLower(strings.TrimSpace(name)); {
		case contains(dateHeaders, normalized):
			cols.date = i
		case contains(amountHeaders, normalized):
			cols.amount = i
		case contains(categoryHeaders, normalized):
			cols.category = i
		case contains(descriptionHeaders, normalized):
			cols.description = i
		}
	}
	if cols.date < 0 {
		return columns{}, core.Validationf("csv header is missing a date column")
	}
	if cols.amount < 0 {
		return columns{}, core.Validationf("csv header is missing an amount column")
	}
	return cols, nil
}

func (p *Parser) parseRow(cols columns, fields []string) (Record, error) {
	date, err := parseDate(field(fields, cols.date))
	if err != nil {
		return Record{}, err
	}

	cents, err := core.ParseSignedDecimalToCents(field(fields, cols.amount))
	if err != nil {
		return Record{}, err
	}
	if cents < 0 {
		cents = -cents
	}
	if cents == 0 {
		return Record{}, core.Validationf("amount must be non-zero")
	}

	description := strings.TrimSpace(field(fields, cols.description))
	category := strings.TrimSpace(field(fields, cols.category))
	if category == "" {
		category = rules.Match(description, p.ruleset)
	}
	if category == "" {
		category = p.fallbackCategory()
	}

	return Record{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: description,
	}, nil
}

func (p *Parser) fallbackCategory() string {
	if p.direction == core.ApplyIncome {
		return "Income"
	}
	return "Uncategorized"
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, core.Validationf("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			// Normalize to midday UTC, same as materialized instances.
			return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, core.Validationf("unparsable date %q", raw)
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
