package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/polymktlab/poly-data/internal/model"
)

// fakeDB records statements and replays scripted row counts.
type fakeDB struct {
	sqls []string
	args [][]any

	// affected is consumed one entry per Exec / batch result; when
	// exhausted, 1 is assumed.
	affected []int64
	execErr  error
}

func (f *fakeDB) nextTag() pgconn.CommandTag {
	n := int64(1)
	if len(f.affected) > 0 {
		n = f.affected[0]
		f.affected = f.affected[1:]
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", n))
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return f.nextTag(), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("query not scripted")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("query row not scripted")
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	for _, q := range b.QueuedQueries {
		f.sqls = append(f.sqls, q.SQL)
		f.args = append(f.args, q.Arguments)
	}
	return &fakeBatchResults{db: f, remaining: b.Len()}
}

type fakeBatchResults struct {
	db        *fakeDB
	remaining int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.remaining == 0 {
		return pgconn.CommandTag{}, fmt.Errorf("batch exhausted")
	}
	r.remaining--
	return r.db.nextTag(), nil
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, fmt.Errorf("not scripted") }
func (r *fakeBatchResults) QueryRow() pgx.Row        { panic("not scripted") }
func (r *fakeBatchResults) Close() error             { return nil }

func TestUpsertMarketMergesForward(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	m := model.Market{
		MarketID: "m-1",
		Question: model.Ptr("Will it rain?"),
	}
	if err := s.UpsertMarket(context.Background(), m); err != nil {
		t.Fatalf("UpsertMarket: %v", err)
	}

	if len(db.sqls) != 1 {
		t.Fatalf("statements = %d, want 1", len(db.sqls))
	}
	sql := db.sqls[0]
	for _, frag := range []string{
		"ON CONFLICT (market_id) DO UPDATE",
		"COALESCE(EXCLUDED.question, markets.question)",
		"COALESCE(EXCLUDED.resolved_outcome, markets.resolved_outcome)",
	} {
		if !strings.Contains(sql, frag) {
			t.Errorf("upsert sql missing %q", frag)
		}
	}
	if len(db.args[0]) != 9 {
		t.Errorf("args = %d, want 9", len(db.args[0]))
	}
}

func TestSetCutoffIsMonotonic(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	cutoff := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetCutoff(context.Background(), "m-1", cutoff); err != nil {
		t.Fatalf("SetCutoff: %v", err)
	}

	sql := db.sqls[0]
	if !strings.Contains(sql, "resolution_cutoff IS NULL OR resolution_cutoff > $1") {
		t.Errorf("cutoff update lacks monotonic guard:\n%s", sql)
	}
}

func TestUpsertTokensSkipsEmptyKey(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	if err := s.UpsertTokens(context.Background(), model.TokenPair{MarketID: "m-1"}); err != nil {
		t.Fatalf("UpsertTokens: %v", err)
	}
	if len(db.sqls) != 0 {
		t.Errorf("empty YES token produced %d statements, want 0", len(db.sqls))
	}
}

func TestUpsertTokensBackfillsNoSide(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	pair := model.TokenPair{TokenIDYes: "tok-y", MarketID: "m-1"}
	if err := s.UpsertTokens(context.Background(), pair); err != nil {
		t.Fatalf("UpsertTokens: %v", err)
	}

	sql := db.sqls[0]
	if !strings.Contains(sql, "COALESCE(EXCLUDED.token_id_no, tokens.token_id_no)") {
		t.Errorf("token upsert would clobber stored NO side:\n%s", sql)
	}
}

func TestInsertPriceTicksCountsConflicts(t *testing.T) {
	db := &fakeDB{affected: []int64{1, 0, 1}}
	s := New(db)

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ticks := []model.PriceTick{
		{TokenID: "tok-1", TS: ts, Price: 0.40},
		{TokenID: "tok-1", TS: ts.Add(time.Minute), Price: 0.41},
		{TokenID: "tok-1", TS: ts.Add(2 * time.Minute), Price: 0.42},
	}

	inserted, conflicts, err := s.InsertPriceTicks(context.Background(), ticks)
	if err != nil {
		t.Fatalf("InsertPriceTicks: %v", err)
	}
	if inserted != 2 || conflicts != 1 {
		t.Errorf("inserted=%d conflicts=%d, want 2 and 1", inserted, conflicts)
	}
	if !strings.Contains(db.sqls[0], "ON CONFLICT (token_id, ts) DO NOTHING") {
		t.Errorf("price insert not conflict-safe:\n%s", db.sqls[0])
	}
}

func TestInsertPriceTicksEmpty(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	inserted, conflicts, err := s.InsertPriceTicks(context.Background(), nil)
	if err != nil || inserted != 0 || conflicts != 0 {
		t.Errorf("empty insert = (%d, %d, %v), want zeros", inserted, conflicts, err)
	}
	if len(db.sqls) != 0 {
		t.Errorf("empty insert sent %d statements", len(db.sqls))
	}
}

func TestInsertBookSnapshotConflictIsNoOp(t *testing.T) {
	db := &fakeDB{affected: []int64{0}}
	s := New(db)

	snap := model.BookSnapshot{
		TokenID: "tok-1",
		TS:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Mid:     model.Ptr(0.42),
	}
	if err := s.InsertBookSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("conflict should be a no-op, got %v", err)
	}
}

func TestUpsertFeatureRowReplacesAllColumns(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	row := model.FeatureRow{
		MarketID: "m-1",
		CutoffTS: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		LastMid:  0.42,
	}
	if err := s.UpsertFeatureRow(context.Background(), row); err != nil {
		t.Fatalf("UpsertFeatureRow: %v", err)
	}

	sql := db.sqls[0]
	if strings.Contains(sql, "COALESCE") {
		t.Errorf("feature upsert must replace, not merge:\n%s", sql)
	}
	for _, col := range []string{"volat_1h", "volat_24h", "volat_7d", "momentum_24h", "label_outcome"} {
		if !strings.Contains(sql, col+" ") && !strings.Contains(sql, col+",") && !strings.Contains(sql, col+"\n") {
			t.Errorf("feature upsert missing column %s", col)
		}
	}
	if len(db.args[0]) != 18 {
		t.Errorf("args = %d, want 18", len(db.args[0]))
	}
}

func TestRecordIngestFlattensParams(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	entry := AuditEntry{
		RunID:    uuid.New(),
		Endpoint: "gamma_markets",
		URL:      "https://gamma-api.polymarket.com/markets",
		Params:   map[string][]string{"limit": {"100"}, "offset": {"0"}},
		Status:   200,
		Payload:  []byte(`{"ok":true}`),
	}
	if err := s.RecordIngest(context.Background(), entry); err != nil {
		t.Fatalf("RecordIngest: %v", err)
	}
	if !strings.Contains(db.sqls[0], "INSERT INTO ingest_log") {
		t.Errorf("unexpected sql:\n%s", db.sqls[0])
	}
}

func TestPayloadHashIsCanonical(t *testing.T) {
	a := PayloadHash([]byte(`{"b": 1, "a": 2}`))
	b := PayloadHash([]byte(`{"a":2,"b":1}`))
	if a != b {
		t.Errorf("key order changed hash: %s vs %s", a, b)
	}

	c := PayloadHash([]byte(`{"a":2,"b":2}`))
	if a == c {
		t.Error("different payloads hashed identically")
	}

	// Invalid JSON still hashes deterministically.
	d1 := PayloadHash([]byte("not json"))
	d2 := PayloadHash([]byte("not json"))
	if d1 != d2 {
		t.Error("invalid payload hash not deterministic")
	}
}
