package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of the date column in source rows (YYYY/MM/DD).
const DateLayout = "2006/01/02"

// Columns is the fixed column layout of a source row.
var Columns = []string{"date", "close", "volume", "open", "high", "low"}

// ErrColumnCount marks a row whose width differs from len(Columns).
var ErrColumnCount = errors.New("wrong column count")

// ParseError describes a source row that could not be turned into a StockRecord.
type ParseError struct {
	Line   int    // 1-based line (or spreadsheet row) in the source, 0 if unknown
	Column string // column name, empty for column count mismatches
	Value  string // raw field value
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " in column %q (value %q)", e.Column, e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// StockRecord is one day's price/volume data point.
type StockRecord struct {
	date   time.Time
	close  float64
	volume int64
	open   float64
	high   float64
	low    float64
}

// ParseStockRecord converts a row laid out as date, close, volume, open, high, low.
// The returned ParseError has no Line set; callers that know the position fill it in.
func ParseStockRecord(row []string) (StockRecord, error) {
	if len(row) != len(Columns) {
		return StockRecord{}, &ParseError{
			Err: fmt.Errorf("%w: got %d, want %d", ErrColumnCount, len(row), len(Columns)),
		}
	}

	date, err := time.Parse(DateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return StockRecord{}, &ParseError{Column: Columns[0], Value: row[0], Err: err}
	}

	var nums [5]float64
	for i := 1; i < len(row); i++ {
		f, err := parseFloat(row[i])
		if err != nil {
			return StockRecord{}, &ParseError{Column: Columns[i], Value: row[i], Err: err}
		}
		nums[i-1] = f
	}

	// volume is stored as a float in some exports ("100.0", "1.5e6")
	volume := math.Trunc(nums[1])
	if volume >= math.MaxInt64 || volume < math.MinInt64 {
		return StockRecord{}, &ParseError{Column: Columns[2], Value: row[2], Err: errors.New("volume out of range")}
	}

	return StockRecord{
		date:   date,
		close:  nums[0],
		volume: int64(volume),
		open:   nums[2],
		high:   nums[3],
		low:    nums[4],
	}, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("non-finite number")
	}
	return f, nil
}

func (r StockRecord) Date() time.Time { return r.date }
func (r StockRecord) Close() float64  { return r.close }
func (r StockRecord) Volume() int64   { return r.volume }
func (r StockRecord) Open() float64   { return r.open }
func (r StockRecord) High() float64   { return r.high }
func (r StockRecord) Low() float64    { return r.low }

// MarshalJSON renders the record with its exported field names.
func (r StockRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date   time.Time `json:"date"`
		Close  float64   `json:"close"`
		Volume int64     `json:"volume"`
		Open   float64   `json:"open"`
		High   float64   `json:"high"`
		Low    float64   `json:"low"`
	}{r.date, r.close, r.volume, r.open, r.high, r.low})
}

// Aggregation is the day with the maximum high over a batch of records.
type Aggregation struct {
	Date time.Time `json:"date"`
	High float64   `json:"high"`
}

// NewAggregation projects a record onto its date and high.
func NewAggregation(r StockRecord) Aggregation {
	return Aggregation{Date: r.date, High: r.high}
}
