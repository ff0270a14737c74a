package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact spend summary for one month.
type MonthOverview struct {
	Month      MonthKey
	Total      Money
	ByCategory []CategoryAmount
}

// BudgetLine is one category's actuals reconciled against its limit.
type BudgetLine struct {
	Category string
	Limit    Money
	Spent    Money
}

// Over reports whether spending exceeded the limit. Lines without a limit
// (zero) are never over.
func (l BudgetLine) Over() bool {
	return l.Limit.Cents > 0 && l.Spent.Cents > l.Limit.Cents
}

// BudgetReport reconciles a month's budget against its expense instances.
// It is computed at read time and never persisted.
type BudgetReport struct {
	Month      MonthKey
	TotalLimit Money
	TotalSpent Money
	Lines      []BudgetLine
}

// BuildMonthOverview aggregates expense instances by category.
func BuildMonthOverview(month MonthKey, expenses []Transaction) MonthOverview {
	ov := MonthOverview{Month: month}
	byCat := map[string]int64{}
	order := make([]string, 0)
	for _, e := range expenses {
		if e.IsTemplate {
			continue
		}
		if _, seen := byCat[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCat[e.Category] += e.Amount.Cents
		ov.Total.Cents += e.Amount.Cents
	}
	for _, name := range order {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: byCat[name]}})
	}
	return ov
}

// BuildBudgetReport joins stored limits with actual spending. Categories
// appear if they have a limit, spending, or both; ordering is lexical for
// stable output.
func BuildBudgetReport(b Budget, expenses []Transaction) BudgetReport {
	report := BudgetReport{Month: b.Month, TotalLimit: b.Total}

	spent := map[string]int64{}
	for _, e := range expenses {
		if e.IsTemplate {
			continue
		}
		spent[e.Category] += e.Amount.Cents
		report.TotalSpent.Cents += e.Amount.Cents
	}

	names := make([]string, 0, len(spent)+len(b.PerCategory))
	seen := map[string]bool{}
	for cat := range b.PerCategory {
		names = append(names, cat)
		seen[cat] = true
	}
	for cat := range spent {
		if !seen[cat] {
			names = append(names, cat)
		}
	}
	sort.Strings(names)

	for _, cat := range names {
		report.Lines = append(report.Lines, BudgetLine{
			Category: cat,
			Limit:    b.PerCategory[cat],
			Spent:    Money{Cents: spent[cat]},
		})
	}
	return report
}
