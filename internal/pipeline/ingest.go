package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"stock-pipeline/internal/model"
	"stock-pipeline/pkg/utils"
)

// ------------------- Ingestion -------------------

// ReadStocks opens location (a local path or an http(s) URL), parses every row
// into a StockRecord and returns them in source order. Locations ending in
// .xlsx are read as workbooks, anything else as CSV. Any malformed row fails
// the whole read with a *model.ParseError and no records.
func ReadStocks(ctx context.Context, location string) ([]model.StockRecord, error) {
	src, err := openSource(ctx, location)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if utils.FileType(location) == utils.TypeExcel {
		return readXLSX(ctx, src)
	}
	return readCSV(ctx, src)
}

func openSource(ctx context.Context, location string) (io.ReadCloser, error) {
	if !utils.IsURL(location) {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open source file: %w", err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET source: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to GET source: HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ------------------- CSV -------------------

func readCSV(ctx context.Context, r io.Reader) ([]model.StockRecord, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	// column count is checked by ParseStockRecord so the error carries the line
	csvReader.FieldsPerRecord = -1

	var records []model.StockRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			var cerr *csv.ParseError
			if errors.As(err, &cerr) {
				return nil, &model.ParseError{Line: cerr.Line, Err: cerr.Err}
			}
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		line, _ := csvReader.FieldPos(0)
		rec, err := parseRow(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ------------------- Excel -------------------

// readXLSX reads the first sheet of a workbook using the same column layout as CSV.
// Cells are read raw, so a date cell arrives as its serial number and is
// converted before parsing. Text dates in YYYY/MM/DD are taken as they are.
func readXLSX(ctx context.Context, r io.Reader) ([]model.StockRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	records := make([]model.StockRecord, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		if len(row) > 0 {
			row[0] = excelDate(row[0])
		}
		rec, err := parseRow(row, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, line int) (model.StockRecord, error) {
	rec, err := model.ParseStockRecord(row)
	if err != nil {
		var perr *model.ParseError
		if errors.As(err, &perr) {
			perr.Line = line
		}
		return model.StockRecord{}, err
	}
	return rec, nil
}

// excelDate turns a serial date number into DateLayout text. Anything else is
// returned unchanged and left to the date parser.
func excelDate(cell string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Format(model.DateLayout)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
