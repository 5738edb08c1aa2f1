package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

// StatementRow is one usable line of a bank statement.
type StatementRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        model.TransactionType
	Category    string
	Reference   string
	Balance     *decimal.Decimal
}

type ParsedStatement struct {
	Rows    []StatementRow
	Skipped int
}

var statementDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"02-Jan-2006",
	"02 Jan 2006",
	"02-Jan-06",
	"02/01/06",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

type column int

const (
	colDate column = iota
	colDescription
	colAmount
	colDebit
	colCredit
	colType
	colBalance
	colReference
	colCount
)

// statementColumns maps each role to its column index, or -1.
type statementColumns [colCount]int

func mapColumns(header []string) statementColumns {
	var cols statementColumns
	for i := range cols {
		cols[i] = -1
	}
	set := func(c column, i int) {
		if cols[c] == -1 {
			cols[c] = i
		}
	}

	for i, h := range header {
		lc := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case strings.Contains(lc, "date"):
			set(colDate, i)
		case strings.Contains(lc, "desc") || strings.Contains(lc, "narration") ||
			strings.Contains(lc, "particulars") || strings.Contains(lc, "remarks"):
			set(colDescription, i)
		case lc == "type" || lc == "tran_type" || lc == "transactiontype" || lc == "transaction type" ||
			lc == "cr/dr" || lc == "dr/cr":
			set(colType, i)
		case strings.Contains(lc, "withdrawal") || strings.Contains(lc, "debit"):
			set(colDebit, i)
		case strings.Contains(lc, "deposit") || strings.Contains(lc, "credit"):
			set(colCredit, i)
		case strings.Contains(lc, "amount") && !strings.Contains(lc, "bal"):
			set(colAmount, i)
		case strings.Contains(lc, "balance") || lc == "bal":
			set(colBalance, i)
		case strings.Contains(lc, "ref") || strings.Contains(lc, "cheque") || strings.Contains(lc, "chq"):
			set(colReference, i)
		}
	}
	return cols
}

// ParseStatement reads a CSV bank statement. Rows without a usable date or
// amount are skipped and counted.
func ParseStatement(r io.Reader) (*ParsedStatement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.ErrEmptyStatement
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := mapColumns(header)
	if cols[colDate] == -1 {
		return nil, fmt.Errorf("%w: no date column", model.ErrEmptyStatement)
	}
	if cols[colAmount] == -1 && cols[colDebit] == -1 && cols[colCredit] == -1 {
		return nil, fmt.Errorf("%w: no amount column", model.ErrEmptyStatement)
	}

	result := &ParsedStatement{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row, ok := parseStatementRecord(record, cols)
		if !ok {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	if len(result.Rows) == 0 {
		return nil, model.ErrEmptyStatement
	}
	return result, nil
}

func parseStatementRecord(record []string, cols statementColumns) (StatementRow, bool) {
	field := func(c column) string {
		i := cols[c]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, ok := parseStatementDate(field(colDate))
	if !ok {
		return StatementRow{}, false
	}

	var (
		amount decimal.Decimal
		kind   model.TransactionType
	)

	switch {
	case field(colAmount) != "":
		a, hint, ok := parseStatementAmount(field(colAmount))
		if !ok {
			return StatementRow{}, false
		}
		amount, kind = a, hint
		if a.IsNegative() && kind == "" {
			kind = model.TransactionTypeExpense
		}
	default:
		debit, _, okD := parseStatementAmount(field(colDebit))
		credit, _, okC := parseStatementAmount(field(colCredit))
		switch {
		case okC && !credit.IsZero():
			amount, kind = credit, model.TransactionTypeIncome
		case okD && !debit.IsZero():
			amount, kind = debit, model.TransactionTypeExpense
		default:
			return StatementRow{}, false
		}
	}

	if t := field(colType); t != "" {
		kind = normalizeStatementType(t)
	}
	if kind == "" {
		kind = model.TransactionTypeExpense
	}

	description := field(colDescription)
	row := StatementRow{
		Date:        date,
		Description: description,
		Amount:      amount.Abs(),
		Type:        kind,
		Category:    Categorize(description),
		Reference:   field(colReference),
	}
	if b, _, ok := parseStatementAmount(field(colBalance)); ok {
		row.Balance = &b
	}
	return row, true
}

func parseStatementDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range statementDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStatementAmount understands Indian formatting such as "₹1,25,000.50 Cr".
// The returned type hint is set when the value carries a Cr/Dr marker.
func parseStatementAmount(s string) (decimal.Decimal, model.TransactionType, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, "", false
	}

	var hint model.TransactionType
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "cr"):
		hint = model.TransactionTypeIncome
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "dr"):
		hint = model.TransactionTypeExpense
		s = s[:len(s)-2]
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("₹", "", "INR", "", "Rs.", "", "Rs", "", ",", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, "", false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, "", false
	}
	if negative {
		d = d.Neg()
	}
	return d, hint, true
}

func normalizeStatementType(s string) model.TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "cr", "deposit", "in", "income":
		return model.TransactionTypeIncome
	default:
		return model.TransactionTypeExpense
	}
}
