package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestSheet(t *testing.T, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return Open(path)
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		letter  string
		want    int
		wantErr bool
	}{
		{letter: "A", want: 0},
		{letter: "B", want: 1},
		{letter: "Z", want: 25},
		{letter: "AA", want: 26},
		{letter: "AB", want: 27},
		{letter: "a", want: 0},
		{letter: " C ", want: 2},
		{letter: "", wantErr: true},
		{letter: "A1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ColumnIndex(tt.letter)
		if tt.wantErr {
			assert.Error(t, err, "letter %q", tt.letter)
			continue
		}
		require.NoError(t, err, "letter %q", tt.letter)
		assert.Equal(t, tt.want, got, "letter %q", tt.letter)
	}
}

func TestReadColumnSkipsHeaderAndEmptyCells(t *testing.T) {
	f := writeTestSheet(t, "URL,Views\nhttps://example.com/a,\n,\nhttps://example.com/b,\n")

	cells, err := f.ReadColumn("A", 2)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, Cell{Position: 2, Text: "https://example.com/a"}, cells[0])
	assert.Equal(t, Cell{Position: 4, Text: "https://example.com/b"}, cells[1])
}

func TestReadColumnMissingFileFails(t *testing.T) {
	f := Open(filepath.Join(t.TempDir(), "absent.csv"))
	_, err := f.ReadColumn("A", 1)
	assert.Error(t, err)
}

func TestWriteCountFormatsThousands(t *testing.T) {
	f := writeTestSheet(t, "URL,Views\nhttps://example.com/a,\n")

	require.NoError(t, f.WriteCount(2, "B", 1523409))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1,523,409"`)
}

func TestWriteCountPreservesOtherCells(t *testing.T) {
	f := writeTestSheet(t, "URL,Views\nhttps://example.com/a,old\nhttps://example.com/b,\n")

	require.NoError(t, f.WriteCount(3, "B", 500))

	cells, err := f.ReadColumn("B", 2)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "old", cells[0].Text)
	assert.Equal(t, "500", cells[1].Text)

	urls, err := f.ReadColumn("A", 2)
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestWriteCountGrowsGrid(t *testing.T) {
	f := writeTestSheet(t, "URL\nhttps://example.com/a\n")

	require.NoError(t, f.WriteCount(4, "C", 7))

	cells, err := f.ReadColumn("C", 1)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 4, cells[0].Position)
	assert.Equal(t, "7", cells[0].Text)
}

func TestWriteCountRejectsInvalidRow(t *testing.T) {
	f := writeTestSheet(t, "URL\n")
	assert.Error(t, f.WriteCount(0, "B", 1))
}

func TestWriteCountIsIdempotent(t *testing.T) {
	f := writeTestSheet(t, "URL,Views\nhttps://example.com/a,\n")

	require.NoError(t, f.WriteCount(2, "B", 100))
	require.NoError(t, f.WriteCount(2, "B", 100))

	cells, err := f.ReadColumn("B", 2)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "100", cells[0].Text)
}
