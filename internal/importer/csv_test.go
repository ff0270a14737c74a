package importer

import (
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"date,category,amount,description",
		"2024-01-15,Food,12.50,Lunch",
		`2024-01-16,,"8,00","Esselunga run"`,
		"2024-01-17,,3.20,something unknown",
		"not-a-date,Food,5,X",
		"2024-01-19,Food,abc,Y",
	}, "\n")

	ruleset := []core.SmartRule{
		{Keyword: "esselunga", Category: "Groceries", ApplyTo: core.ApplyExpense},
	}

	records, result, err := NewParser(core.ApplyExpense, ruleset, 0).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Imported != 3 {
		t.Fatalf("imported = %d, want 3", result.Imported)
	}
	if result.BatchID == "" {
		t.Error("batch id is empty")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %+v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Row != 5 {
		t.Errorf("first error row = %d, want 5", result.Errors[0].Row)
	}
	if result.Errors[1].Row != 6 {
		t.Errorf("second error row = %d, want 6", result.Errors[1].Row)
	}

	if records[0].Category != "Food" || records[0].Amount.Cents != 1250 {
		t.Errorf("row 2 = %+v, want Food 1250", records[0])
	}
	wantDate := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if !records[0].Date.Equal(wantDate) {
		t.Errorf("row 2 date = %v, want %v", records[0].Date, wantDate)
	}
	if records[1].Category != "Groceries" {
		t.Errorf("row 3 category = %q, want Groceries via rule", records[1].Category)
	}
	if records[1].Amount.Cents != 800 {
		t.Errorf("row 3 amount = %d, want 800", records[1].Amount.Cents)
	}
	if records[2].Category != "Uncategorized" {
		t.Errorf("row 4 category = %q, want Uncategorized fallback", records[2].Category)
	}
}

func TestParseNegativeAmountStoredAbsolute(t *testing.T) {
	input := "date,amount,description\n2024-03-01,-42.00,Refund gone wrong"
	records, result, err := NewParser(core.ApplyExpense, nil, 0).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Imported != 1 || len(records) != 1 {
		t.Fatalf("imported = %d, want 1", result.Imported)
	}
	if records[0].Amount.Cents != 4200 {
		t.Errorf("amount = %d, want 4200", records[0].Amount.Cents)
	}
}

func TestParseHeaderAliases(t *testing.T) {
	input := "TRANSACTION_DATE,VALUE,Cat,Note\n2024-02-01,10.00,Bills,Electricity"
	records, _, err := NewParser(core.ApplyExpense, nil, 0).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Category != "Bills" || records[0].Description != "Electricity" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestParseIncomeFallback(t *testing.T) {
	input := "date,amount,description\n2024-02-01,1500.00,Freelance gig"
	records, _, err := NewParser(core.ApplyIncome, nil, 0).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if records[0].Category != "Income" {
		t.Errorf("category = %q, want Income", records[0].Category)
	}
}

func TestParseRejectsMissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no date", "amount,description\n"},
		{"no amount", "date,description\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewParser(core.ApplyExpense, nil, 0).Parse(strings.NewReader(tt.header))
			if !core.IsValidation(err) {
				t.Fatalf("error = %v, want validation error", err)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, _, err := NewParser(core.ApplyExpense, nil, 0).Parse(strings.NewReader(""))
	if !core.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestParseRowLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,amount\n")
	for i := 0; i < 3; i++ {
		b.WriteString("2024-01-01,1.00\n")
	}
	_, _, err := NewParser(core.ApplyExpense, nil, 2).Parse(strings.NewReader(b.String()))
	if !core.IsValidation(err) {
		t.Fatalf("error = %v, want validation error for row limit", err)
	}
}

func TestParseQuotedFields(t *testing.T) {
	input := "date,amount,description\n" + `2024-04-02,7.30,"Dinner, with ""friends"""`
	records, _, err := NewParser(core.ApplyExpense, nil, 0).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := `Dinner, with "friends"`; records[0].Description != want {
		t.Errorf("description = %q, want %q", records[0].Description, want)
	}
}
