// Package table loads the flat, delimited configuration and input tables that
// drive a bookkeeping run. Every table is decoded into an explicit typed record
// and validated while loading, so later stages never look fields up by name.
//
// Tables are semicolon separated with one record per line and no header:
//
//	bank statement       date;marker;description;amount;running total
//	account directory    account token;account group
//	pattern rules        pattern;account token
//	templates            group key;template id;account2;account3;account4;postings;vat flag
//	prices               account token;price type;effective date;unit price
//	billing              account token;date;period text;hours;support hours
//	bank-to-invoice      <token>_<YYYYMMDD>;invoice date
//	account override     date;description;account token[;vat-free amount]
//	payroll              MMDD;period text;payout;ATP;A-tax;AM contribution;fee
//
// Example usage:
//
//	r := table.New(table.WithThousandsSeparator('.'))
//	records, err := r.BankRecords("2024/bank.csv")
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotExist is returned (wrapped) when an optional table file is absent.
var ErrNotExist = errors.New("table does not exist")

// Reader decodes tables using a fixed set of format conventions.
//
// Configure the reader using functional options passed to New:
//
//	r := New(WithSeparator(';'), WithBankDateLayout("02-01-2006"))
type Reader struct {
	separator          rune
	thousandsSeparator rune
	bankDateLayout     string
	shortDateLayout    string
}

// Option configures how tables are decoded.
type Option func(*Reader)

// WithSeparator sets the field separator (default ';').
func WithSeparator(sep rune) Option {
	return func(r *Reader) {
		r.separator = sep
	}
}

// WithThousandsSeparator sets the thousands separator used in amounts. The
// decimal separator is the other one of '.' and ','.
func WithThousandsSeparator(sep rune) Option {
	return func(r *Reader) {
		r.thousandsSeparator = sep
	}
}

// WithBankDateLayout sets the Go time layout of bank statement dates.
func WithBankDateLayout(layout string) Option {
	return func(r *Reader) {
		r.bankDateLayout = layout
	}
}

// WithShortDateLayout sets the Go time layout of billing and price dates.
func WithShortDateLayout(layout string) Option {
	return func(r *Reader) {
		r.shortDateLayout = layout
	}
}

// New creates a new Reader with the given options.
func New(opts ...Option) *Reader {
	r := &Reader{
		separator:          ';',
		thousandsSeparator: '.',
		bankDateLayout:     "02-01-2006",
		shortDateLayout:    "060102",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// row is one decoded line together with its origin, for error messages.
type row struct {
	filename string
	line     int
	fields   []string
}

func (r row) field(i int) string {
	if i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) errorf(format string, args ...interface{}) error {
	return &RecordError{
		Filename: r.filename,
		Line:     r.line,
		Message:  fmt.Sprintf(format, args...),
	}
}

// RecordError reports a record that failed load-time validation.
type RecordError struct {
	Filename string
	Line     int
	Message  string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

// readRows reads every non-empty line of a table, requiring at least minFields
// fields per line.
func (r *Reader) readRows(filename string, minFields int) ([]row, error) {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, filename)
		}
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.decodeRows(f, filename, minFields)
}

func (r *Reader) decodeRows(in io.Reader, filename string, minFields int) ([]row, error) {
	cr := csv.NewReader(in)
	cr.Comma = r.separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []row
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}

		line, _ := cr.FieldPos(0)
		if isBlank(fields) {
			continue
		}

		rw := row{filename: filename, line: line, fields: fields}
		if len(fields) < minFields {
			return nil, rw.errorf("expected at least %d fields, got %d", minFields, len(fields))
		}
		rows = append(rows, rw)
	}

	return rows, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
