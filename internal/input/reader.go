// Package input reads the CEP list of a run from a CSV file.
package input

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nexconsult/cep-processor/internal/utils"
)

var (
	// ErrInputNotFound is returned when the input file does not exist
	ErrInputNotFound = errors.New("input file not found")

	// ErrNoColumns is returned when the file has no usable column
	ErrNoColumns = errors.New("CSV is empty or has no columns")

	// ErrNoCodes is returned when the selected column holds no CEP
	ErrNoCodes = errors.New("no CEPs found in input")
)

const utf8BOM = "\ufeff"

// Column describes the column picked to read CEPs from
type Column struct {
	Index     int
	Name      string
	HasHeader bool
}

// ReadFile reads the CEPs of path. See Read.
func ReadFile(path string) ([]string, Column, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Column{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, Column{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a CSV document and returns its normalized, deduplicated CEPs.
// The first row is a header unless its first cell, without "-", is all digits.
// The CEP column is the first header containing "cep" or "zip", or the first column.
func Read(r io.Reader) ([]string, Column, error) {
	br := bufio.NewReader(r)
	skipByteOrderMark(br)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = sniffDelimiter(br)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, Column{}, fmt.Errorf("failed to parse CSV: %w", err)
	}

	rows = dropBlankRows(rows)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, Column{}, ErrNoColumns
	}

	column := DetectColumn(rows[0])
	data := rows
	if column.HasHeader {
		data = rows[1:]
	}

	values := make([]string, 0, len(data))
	for _, row := range data {
		if column.Index < len(row) {
			values = append(values, row[column.Index])
		}
	}

	ceps := utils.UniqueCEPs(values)
	if len(ceps) == 0 {
		return nil, column, ErrNoCodes
	}

	return ceps, column, nil
}

// DetectColumn decides whether first is a header row and which column holds the CEPs
func DetectColumn(first []string) Column {
	if len(first) == 0 {
		return Column{}
	}

	if utils.IsDigits(utils.NormalizeCEP(first[0])) {
		return Column{Index: 0}
	}

	for i, name := range first {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "cep") || strings.Contains(lower, "zip") {
			return Column{Index: i, Name: strings.TrimSpace(name), HasHeader: true}
		}
	}

	return Column{Index: 0, Name: strings.TrimSpace(first[0]), HasHeader: true}
}

// skipByteOrderMark discards a leading UTF-8 BOM, as written by spreadsheet exports
func skipByteOrderMark(br *bufio.Reader) {
	if mark, err := br.Peek(len(utf8BOM)); err == nil && string(mark) == utf8BOM {
		br.Discard(len(utf8BOM))
	}
}

// sniffDelimiter picks ';' when the first line uses it and has no ','
func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Contains(string(line), ";") && !strings.Contains(string(line), ",") {
		return ';'
	}
	return ','
}

func dropBlankRows(rows [][]string) [][]string {
	kept := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
