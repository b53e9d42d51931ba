// Package report builds the periodic spreadsheet reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/bunyodbekab/finans-assistent-bot/internal/i18n"
	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage"
)

// ErrNoData means the selected window contains no entries of either kind.
// It is an expected outcome, not a failure.
var ErrNoData = errors.New("no data for report")

const dateFormat = "2006-01-02 15:04"

// Artifact is a fully built spreadsheet, ready for delivery. It lives only
// in memory; nothing is written to durable storage.
type Artifact struct {
	Name string
	Data []byte
}

// CurrencyTotal is one row of the totals sheet.
type CurrencyTotal struct {
	Currency model.Currency
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Balance  decimal.Decimal
}

// Generator produces report artifacts from the persistence store.
type Generator struct {
	store storage.Storage
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewGenerator(store storage.Storage, log logrus.FieldLogger) *Generator {
	return &Generator{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Generate loads the user's full history, keeps entries within the period's
// window, aggregates per-currency totals and renders the spreadsheet.
// Returns ErrNoData when both filtered sets are empty.
func (g *Generator) Generate(ctx context.Context, userID int64, period model.Period, loc model.Locale) (*Artifact, error) {
	incomes, err := g.store.Entries(ctx, model.KindIncome, userID)
	if err != nil {
		return nil, fmt.Errorf("load incomes: %w", err)
	}
	expenses, err := g.store.Entries(ctx, model.KindExpense, userID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	cutoff := g.now().Add(-period.Window())
	incomes = filterSince(incomes, cutoff)
	expenses = filterSince(expenses, cutoff)
	if len(incomes) == 0 && len(expenses) == 0 {
		return nil, ErrNoData
	}

	totals := aggregate(incomes, expenses)

	data, err := g.render(loc, totals, incomes, expenses)
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}

	name := i18n.T(loc, i18n.KeyFileWeekly)
	if period == model.PeriodMonthly {
		name = i18n.T(loc, i18n.KeyFileMonthly)
	}
	return &Artifact{Name: name, Data: data}, nil
}

func filterSince(entries []model.Entry, cutoff time.Time) []model.Entry {
	var kept []model.Entry
	for _, entry := range entries {
		if !entry.Date.Before(cutoff) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// aggregate sums each side by currency and outer-joins the two sums,
// defaulting the missing side to zero.
func aggregate(incomes, expenses []model.Entry) []CurrencyTotal {
	incomeByCur := make(map[model.Currency]decimal.Decimal)
	for _, entry := range incomes {
		incomeByCur[entry.Currency] = incomeByCur[entry.Currency].Add(entry.Amount)
	}
	expenseByCur := make(map[model.Currency]decimal.Decimal)
	for _, entry := range expenses {
		expenseByCur[entry.Currency] = expenseByCur[entry.Currency].Add(entry.Amount)
	}

	currencies := make([]model.Currency, 0, len(incomeByCur)+len(expenseByCur))
	seen := make(map[model.Currency]bool)
	for cur := range incomeByCur {
		if !seen[cur] {
			seen[cur] = true
			currencies = append(currencies, cur)
		}
	}
	for cur := range expenseByCur {
		if !seen[cur] {
			seen[cur] = true
			currencies = append(currencies, cur)
		}
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	totals := make([]CurrencyTotal, 0, len(currencies))
	for _, cur := range currencies {
		income := incomeByCur[cur]
		expense := expenseByCur[cur]
		totals = append(totals, CurrencyTotal{
			Currency: cur,
			Income:   income,
			Expense:  expense,
			Balance:  income.Sub(expense),
		})
	}
	return totals
}

func (g *Generator) render(loc model.Locale, totals []CurrencyTotal, incomes, expenses []model.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	totalsSheet := i18n.T(loc, i18n.KeySheetTotals)
	if err := f.SetSheetName("Sheet1", totalsSheet); err != nil {
		return nil, fmt.Errorf("rename totals sheet: %w", err)
	}
	writeHeader(f, totalsSheet, []string{
		i18n.T(loc, i18n.KeyColCurrency),
		i18n.T(loc, i18n.KeyColTotalIncome),
		i18n.T(loc, i18n.KeyColTotalExpense),
		i18n.T(loc, i18n.KeyColBalance),
	})
	for i, total := range totals {
		row := i + 2
		f.SetCellValue(totalsSheet, fmt.Sprintf("A%d", row), string(total.Currency))
		f.SetCellValue(totalsSheet, fmt.Sprintf("B%d", row), total.Income.InexactFloat64())
		f.SetCellValue(totalsSheet, fmt.Sprintf("C%d", row), total.Expense.InexactFloat64())
		f.SetCellValue(totalsSheet, fmt.Sprintf("D%d", row), total.Balance.InexactFloat64())
	}
	f.SetColWidth(totalsSheet, "A", "A", 10)
	f.SetColWidth(totalsSheet, "B", "D", 16)

	g.embedTotalsChart(f, totalsSheet, loc, totals)

	if len(incomes) > 0 {
		if err := g.writeDetailSheet(f, i18n.T(loc, i18n.KeySheetIncomes), loc, incomes); err != nil {
			return nil, err
		}
	}
	if len(expenses) > 0 {
		if err := g.writeDetailSheet(f, i18n.T(loc, i18n.KeySheetExpenses), loc, expenses); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeDetailSheet lists entries with date, amount, currency and comment.
// Identity columns never reach the spreadsheet.
func (g *Generator) writeDetailSheet(f *excelize.File, name string, loc model.Locale, entries []model.Entry) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	writeHeader(f, name, []string{
		i18n.T(loc, i18n.KeyColDate),
		i18n.T(loc, i18n.KeyColAmount),
		i18n.T(loc, i18n.KeyColCurrency),
		i18n.T(loc, i18n.KeyColComment),
	})
	for i, entry := range entries {
		row := i + 2
		f.SetCellValue(name, fmt.Sprintf("A%d", row), entry.Date.Format(dateFormat))
		f.SetCellValue(name, fmt.Sprintf("B%d", row), entry.Amount.InexactFloat64())
		f.SetCellValue(name, fmt.Sprintf("C%d", row), string(entry.Currency))
		f.SetCellValue(name, fmt.Sprintf("D%d", row), entry.Comment)
	}
	f.SetColWidth(name, "A", "A", 18)
	f.SetColWidth(name, "B", "C", 12)
	f.SetColWidth(name, "D", "D", 40)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, h)
	}
}
