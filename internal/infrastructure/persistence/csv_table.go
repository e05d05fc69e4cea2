package persistence

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// csvTable is a CSV file read as text cells addressed by header name
type csvTable struct {
	headers   []string
	headerMap map[string]int
	rows      []*csvRow
}

// csvRow is one data row with its line number in the file
type csvRow struct {
	lineNumber int
	data       map[string]string
}

// Get returns the value for a column by header name
func (r *csvRow) Get(header string) string {
	return r.data[header]
}

// GetOrDefault returns the value for a column, or defaultVal when absent or empty
func (r *csvRow) GetOrDefault(header, defaultVal string) string {
	if val, ok := r.data[header]; ok && val != "" {
		return val
	}
	return defaultVal
}

func (r *csvRow) isEmpty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	return true
}

// HasHeader checks if a header exists
func (t *csvTable) HasHeader(name string) bool {
	_, ok := t.headerMap[name]
	return ok
}

// MissingHeaders returns the required headers the file does not have
func (t *csvTable) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !t.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// readCSVTable reads a whole CSV file. A missing file is reported with an
// error satisfying errors.Is(err, os.ErrNotExist). An empty file yields a
// table without headers.
func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := parseCSVTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// parseCSVTable strips a UTF-8 BOM, checks the encoding and maps every row onto the header
func parseCSVTable(r io.Reader) (*csvTable, error) {
	buf := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, _ := buf.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	content, err := io.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	table := &csvTable{headerMap: make(map[string]int)}
	if len(bytes.TrimSpace(content)) == 0 {
		return table, nil
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		table.headers = append(table.headers, h)
		table.headerMap[h] = i
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		row := &csvRow{lineNumber: line, data: make(map[string]string, len(table.headers))}
		for i, h := range table.headers {
			if i < len(record) {
				row.data[h] = strings.TrimSpace(record[i])
			} else {
				row.data[h] = ""
			}
		}
		if row.isEmpty() {
			continue
		}
		table.rows = append(table.rows, row)
	}
	return table, nil
}

// writeCSVTable replaces path with the given header and records.
// The data goes to a temporary file in the same directory which is then
// renamed over the target, so readers never observe a half-written file.
func writeCSVTable(path string, headers []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
