package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cian-scraper/models"
)

func i64(v int64) *int64 { return &v }
func intp(v int) *int { return &v }
func f64(v float64) *float64 { return &v }

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "raw", "out.csv")
	w := NewCSVWriter(path)

	records := []*models.ListingRecord{
		{
			Price: i64(12500000), Title: "2-комн. квартира, 54.2 м²", Rooms: intp(2), Area: f64(54.2),
			Address: "Москва, Тверская, 1", Underground: "Пушкинская", URL: "https://www.cian.ru/sale/flat/1/",
		},
		{Price: i64(6000000), Title: "Студия", Rooms: intp(0)},
	}

	require.NoError(t, w.Write(context.Background(), records))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"price", "title", "rooms", "area", "address", "underground", "url"}, rows[0])
	assert.Equal(t, []string{"12500000", "2-комн. квартира, 54.2 м²", "2", "54.2", "Москва, Тверская, 1", "Пушкинская", "https://www.cian.ru/sale/flat/1/"}, rows[1])
	assert.Equal(t, []string{"6000000", "Студия", "0", "", "", "", ""}, rows[2])
}

func TestCSVWriterOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(path)

	require.NoError(t, w.Write(context.Background(), []*models.ListingRecord{
		{Price: i64(1), Title: "a"}, {Price: i64(2), Title: "b"},
	}))
	require.NoError(t, w.Write(context.Background(), []*models.ListingRecord{
		{Price: i64(3), Title: "c"},
	}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[1][1])
}

func TestCSVWriterHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, NewCSVWriter(path).Write(context.Background(), nil))

	rows := readCSV(t, path)
	assert.Len(t, rows, 1)
}
