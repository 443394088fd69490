// Package itemcsv reads invoice line items from spreadsheet CSV exports.
package itemcsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/unitrack/internal/encoding"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
)

// ErrHeaderNotFound is returned when no row names all required columns.
var ErrHeaderNotFound = errors.New("itemcsv: header with description, quantity and unit_price not found")

type column int

const (
	colDescription column = iota
	colQuantity
	colUnitPrice
)

// aliases maps lower-cased header names to the column they fill.
var aliases = map[string]column{
	"description": colDescription,
	"item":        colDescription,
	"quantity":    colQuantity,
	"qty":         colQuantity,
	"unit_price":  colUnitPrice,
	"unit price":  colUnitPrice,
	"price":       colUnitPrice,
}

// headerScanRows bounds how many leading rows may precede the header.
const headerScanRows = 10

// Parse decodes r and returns one line item per data row. Numbers are read
// forgivingly; rows with every cell blank are skipped.
func Parse(r io.Reader) ([]invoice.LineItem, error) {
	utf8r, _, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}

	br := bufio.NewReader(utf8r)

	comma, err := detectDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	headerAt, idx, ok := findHeader(rows)
	if !ok {
		return nil, ErrHeaderNotFound
	}

	var items []invoice.LineItem

	for _, row := range rows[headerAt+1:] {
		if blank(row) {
			continue
		}

		items = append(items, invoice.NewLineItem(
			cell(row, idx[colDescription]),
			cell(row, idx[colQuantity]),
			cell(row, idx[colUnitPrice]),
		))
	}

	return items, nil
}

// detectDelimiter picks ';' or ',' from the first line that holds either,
// without consuming input. Comma is the default.
func detectDelimiter(br *bufio.Reader) (rune, error) {
	sample, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("peeking header: %w", err)
	}

	for line := range strings.Lines(string(sample)) {
		semis, commas := strings.Count(line, ";"), strings.Count(line, ",")
		if semis == 0 && commas == 0 {
			continue
		}

		if semis >= commas {
			return ';', nil
		}

		return ',', nil
	}

	return ',', nil
}

func findHeader(rows [][]string) (int, [3]int, bool) {
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}

		idx := [3]int{-1, -1, -1}

		for j, name := range row {
			if c, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok && idx[c] == -1 {
				idx[c] = j
			}
		}

		if idx[colDescription] >= 0 && idx[colQuantity] >= 0 && idx[colUnitPrice] >= 0 {
			return i, idx, true
		}
	}

	return 0, [3]int{}, false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
