package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	data := []byte("Room,Date,OpenTime,CloseTime\nENG 101,2025-03-01,08:00,17:00\nSCI 2,2025-03-01,09:00,18:00\n")

	table, err := Parse("schedule.csv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Room", "Date", "OpenTime", "CloseTime"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "ENG 101", table.Rows[0]["Room"])
	assert.Equal(t, "18:00", table.Rows[1]["CloseTime"])
}

func TestParseCSVRaggedRows(t *testing.T) {
	data := []byte("Room,Date,OpenTime,CloseTime\nENG 101,2025-03-01\n")

	table, err := Parse("schedule.csv", data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["OpenTime"])
	assert.Equal(t, "", table.Rows[0]["CloseTime"])
}

func TestParseUnknownExtension(t *testing.T) {
	_, err := Parse("schedule.pdf", []byte("Room,Date\n"))
	require.Error(t, err)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse("schedule.csv", nil)
	require.Error(t, err)
}

func TestMissingColumns(t *testing.T) {
	table := &Table{Headers: []string{"Room", "Date"}}
	missing := table.MissingColumns([]string{"Room", "Date", "OpenTime", "CloseTime"})
	assert.Equal(t, []string{"OpenTime", "CloseTime"}, missing)

	table = &Table{Headers: []string{"Room", "Date", "OpenTime", "CloseTime", "Notes"}}
	assert.Empty(t, table.MissingColumns([]string{"Room", "Date", "OpenTime", "CloseTime"}))
}

func TestParseXLSXUnreadable(t *testing.T) {
	_, err := Parse("schedule.xlsx", []byte("not a zip archive"))
	require.Error(t, err)
}
