// Package dataset reads and writes the retail CSV format and implements the
// cleaning pass (sort by date, drop incomplete or malformed rows).
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

// Header is the exact column set of the retail CSV.
var Header = []string{"Date", "Sales", "Stocks", "Price", "Category", "Region", "Payment_Mode"}

const (
	colDate = iota
	colSales
	colStocks
	colPrice
	colCategory
	colRegion
	colPaymentMode
)

var (
	ErrDataUnavailable = errors.New("dataset unavailable")
	ErrEmptyFile       = errors.New("empty file")
	ErrMissingColumn   = errors.New("missing column")
	ErrMissingField    = errors.New("missing field")
	ErrMalformedField  = errors.New("malformed field")
)

// Row is one data line as read from disk. Fields are in Header order and are
// kept verbatim (trimmed) so that kept rows can be written back untouched.
type Row struct {
	Line   int
	Fields []string
	Record models.Record
	Err    error
}

func (r Row) Valid() bool { return r.Err == nil }

type Table struct {
	Rows []Row
}

// Records returns the parsed records of valid rows, in table order.
func (t *Table) Records() []models.Record {
	out := make([]models.Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Valid() {
			out = append(out, r.Record)
		}
	}
	return out
}

// Dropped counts rows that failed to parse.
func (t *Table) Dropped() int {
	n := 0
	for _, r := range t.Rows {
		if !r.Valid() {
			n++
		}
	}
	return n
}

// Read parses a retail CSV. Columns are located by header name; rows that
// cannot be parsed are kept in the table with Err set.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	line := 1
	for {
		raw, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				table.Rows = append(table.Rows, Row{Line: line, Err: fmt.Errorf("%w: %v", ErrMalformedField, err)})
				continue
			}
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		fields := make([]string, len(Header))
		for col, pos := range index {
			if pos < len(raw) {
				fields[col] = strings.TrimSpace(raw[pos])
			}
		}

		rec, perr := parseRecord(fields)
		table.Rows = append(table.Rows, Row{Line: line, Fields: fields, Record: rec, Err: perr})
	}

	return table, nil
}

// ReadFile opens and parses path. A missing file is reported as
// ErrDataUnavailable.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

func columnIndex(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		pos[name] = i
	}

	index := make([]int, len(Header))
	for col, name := range Header {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		index[col] = i
	}
	return index, nil
}

// missingTokens are the cell values pandas reads as NA by default.
var missingTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

func parseRecord(fields []string) (models.Record, error) {
	for col, v := range fields {
		if missingTokens[v] {
			return models.Record{}, fmt.Errorf("%w: %s", ErrMissingField, Header[col])
		}
	}

	date, err := time.Parse(DateLayout, fields[colDate])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: Date: %v", ErrMalformedField, err)
	}

	sales, err := parseFinite(fields[colSales])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: Sales: %v", ErrMalformedField, err)
	}

	stocks, err := parseStocks(fields[colStocks])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: Stocks: %v", ErrMalformedField, err)
	}

	price, err := parseFinite(fields[colPrice])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: Price: %v", ErrMalformedField, err)
	}

	return models.Record{
		Date:        date,
		Sales:       sales,
		Stocks:      stocks,
		Price:       price,
		Category:    fields[colCategory],
		Region:      fields[colRegion],
		PaymentMode: fields[colPaymentMode],
	}, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return f, nil
}

// parseStocks accepts integers and integral floats such as "812.0", which
// spreadsheet tools emit for integer columns.
func parseStocks(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int(f), nil
}

// Fields renders a record in Header order.
func Fields(rec models.Record) []string {
	return []string{
		rec.Date.Format(DateLayout),
		strconv.FormatFloat(rec.Sales, 'f', -1, 64),
		strconv.Itoa(rec.Stocks),
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		rec.Category,
		rec.Region,
		rec.PaymentMode,
	}
}

// Write emits the header followed by one line per record.
func Write(w io.Writer, records []models.Record) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = Fields(rec)
	}
	return writeFields(w, rows)
}

// WriteRows emits the header followed by the verbatim fields of rows.
func WriteRows(w io.Writer, rows []Row) error {
	fields := make([][]string, len(rows))
	for i, r := range rows {
		fields[i] = r.Fields
	}
	return writeFields(w, fields)
}

func writeFields(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates the parent directory if needed and writes through fn.
// The file handle is released on every path.
func WriteFile(path string, fn func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file: %w", cerr)
		}
	}()

	return fn(f)
}

// WriteRecordsFile writes records to path in the retail CSV format.
func WriteRecordsFile(path string, records []models.Record) error {
	return WriteFile(path, func(w io.Writer) error {
		return Write(w, records)
	})
}
