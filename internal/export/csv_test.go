package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
	"github.com/polymktlab/poly-data/internal/store"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return records
}

func TestWriteTicks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	rows := []store.TickExportRow{
		{
			MarketID: "m-1",
			Question: model.Ptr("Will it rain?"),
			TokenID:  "tok-1",
			TS:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Price:    0.42,
			Volume:   100,
		},
		{
			MarketID: "m-2",
			TokenID:  "tok-2",
			TS:       time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
			Price:    0.5,
		},
	}
	if err := WriteTicks(path, rows); err != nil {
		t.Fatalf("WriteTicks: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	wantHeader := []string{"market_id", "question", "token_id", "timestamp", "price", "volume"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %s, want %s", i, records[0][i], col)
		}
	}
	if records[1][3] != "2024-03-01T12:00:00Z" || records[1][4] != "0.42" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][1] != "" {
		t.Errorf("nil question = %q, want empty", records[2][1])
	}
}

func TestWriteTicksIsFullRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	rows := []store.TickExportRow{{MarketID: "m-1", TokenID: "tok-1", TS: time.Now(), Price: 0.4}}

	if err := WriteTicks(path, append(rows, rows...)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteTicks(path, rows); err != nil {
		t.Fatalf("second write: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Errorf("records = %d, want header + 1 row (overwritten, not appended)", len(records))
	}
}

func TestWriteFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	rows := []model.FeatureRow{{
		MarketID:    "m-1",
		Question:    model.Ptr("Will it rain?"),
		CutoffTS:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TokenUsed:   model.Ptr("tok-1"),
		LastMid:     0.42,
		Spread:      model.Ptr(0.04),
		Vol24h:      150,
		Momentum1h:  0.1,
		Momentum24h: -0.05,
	}}
	if err := WriteFeatures(path, rows); err != nil {
		t.Fatalf("WriteFeatures: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if len(records[0]) != 18 || records[0][0] != "market_id" || records[0][17] != "label_outcome" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[4] != "0.42" || row[7] != "0.04" || row[6] != "" {
		t.Errorf("row = %v", row)
	}
	if row[15] != "0.1" || row[16] != "-0.05" {
		t.Errorf("momentum columns = %v %v", row[15], row[16])
	}
}
