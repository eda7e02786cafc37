package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"viewledger/pkg/logger"
)

// Cell is one value read from the configured column. Position is the
// 1-based row number in the file, stable across runs.
type Cell struct {
	Position int
	Text     string
}

// File is a CSV-backed grid. Reads scan a single column; writes update
// a single cell and rewrite the file atomically so interrupted runs
// never leave a torn sheet behind.
type File struct {
	path    string
	printer *message.Printer
	logger  logger.Logger
}

func Open(path string) *File {
	return &File{
		path:    path,
		printer: message.NewPrinter(language.English),
		logger:  logger.GetLogger(),
	}
}

func (f *File) Path() string { return f.path }

// ColumnIndex converts a spreadsheet column letter ("A", "B", ... "AA")
// to a 0-based index.
func ColumnIndex(letter string) (int, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return 0, fmt.Errorf("empty column letter")
	}
	index := 0
	for _, r := range letter {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", letter)
		}
		index = index*26 + int(r-'A') + 1
	}
	return index - 1, nil
}

// ReadColumn returns the non-empty cells of the given column, in row
// order, starting at startRow (1-based).
func (f *File) ReadColumn(column string, startRow int) ([]Cell, error) {
	col, err := ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	if startRow < 1 {
		startRow = 1
	}

	records, err := f.readAll()
	if err != nil {
		return nil, err
	}

	var cells []Cell
	for i, record := range records {
		row := i + 1
		if row < startRow || col >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[col])
		if text == "" {
			continue
		}
		cells = append(cells, Cell{Position: row, Text: text})
	}

	f.logger.DebugWithFields("Sheet column read", map[string]interface{}{
		"path":   f.path,
		"column": column,
		"cells":  len(cells),
	})
	return cells, nil
}

// WriteCount writes count into the given column at the given 1-based
// row, formatted with thousands separators, growing the grid if the
// row or column does not exist yet.
func (f *File) WriteCount(position int, column string, count int64) error {
	col, err := ColumnIndex(column)
	if err != nil {
		return err
	}
	if position < 1 {
		return fmt.Errorf("invalid row position %d", position)
	}

	records, err := f.readAll()
	if err != nil {
		return err
	}

	for len(records) < position {
		records = append(records, nil)
	}
	row := records[position-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = f.printer.Sprintf("%d", count)
	records[position-1] = row

	// Pad every row to the same width so the CSV writer does not
	// reject ragged records.
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range records {
		for len(r) < width {
			r = append(r, "")
		}
		records[i] = r
	}

	if err := f.writeAll(records); err != nil {
		return err
	}

	f.logger.DebugWithFields("Sheet cell written", map[string]interface{}{
		"path":   f.path,
		"row":    position,
		"column": column,
		"value":  count,
	})
	return nil
}

func (f *File) readAll() ([][]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet: %w", err)
	}
	return records, nil
}

func (f *File) writeAll(records [][]string) error {
	tempPath := f.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary sheet file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write sheet: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync sheet file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close sheet file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace sheet file: %w", err)
	}
	return nil
}
