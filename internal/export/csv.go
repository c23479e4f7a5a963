// Package export writes the tick-level and feature CSVs consumed by the
// dashboard collaborator. Both exports are full refreshes: the file is
// rewritten atomically, never appended.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
	"github.com/polymktlab/poly-data/internal/store"
)

// tickHeader is the fixed column order of the tick export. External
// consumers parse it positionally; do not reorder.
var tickHeader = []string{"market_id", "question", "token_id", "timestamp", "price", "volume"}

var featureHeader = []string{
	"market_id", "question", "cutoff_ts", "token_used",
	"last_mid", "last_bid", "last_ask", "spread", "depth",
	"vol_1h", "vol_24h", "vol_7d",
	"volat_1h", "volat_24h", "volat_7d",
	"momentum_1h", "momentum_24h",
	"label_outcome",
}

// WriteTicks writes the tick-level export to path.
func WriteTicks(path string, rows []store.TickExportRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, tickHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.MarketID,
			strOrEmpty(r.Question),
			r.TokenID,
			r.TS.UTC().Format(time.RFC3339),
			formatFloat(r.Price),
			formatFloat(r.Volume),
		})
	}
	return writeAtomic(path, records)
}

// WriteFeatures writes the feature-row export to path.
func WriteFeatures(path string, rows []model.FeatureRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, featureHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.MarketID,
			strOrEmpty(r.Question),
			r.CutoffTS.UTC().Format(time.RFC3339),
			strOrEmpty(r.TokenUsed),
			formatFloat(r.LastMid),
			floatOrEmpty(r.LastBid),
			floatOrEmpty(r.LastAsk),
			floatOrEmpty(r.Spread),
			floatOrEmpty(r.Depth),
			formatFloat(r.Vol1h),
			formatFloat(r.Vol24h),
			formatFloat(r.Vol7d),
			formatFloat(r.Volat1h),
			formatFloat(r.Volat24h),
			formatFloat(r.Volat7d),
			formatFloat(r.Momentum1h),
			formatFloat(r.Momentum24h),
			strOrEmpty(r.LabelOutcome),
		})
	}
	return writeAtomic(path, records)
}

// writeAtomic writes records to a temp file in the target directory and
// renames it over path, so a crashed export never leaves a torn file.
func writeAtomic(path string, records [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
