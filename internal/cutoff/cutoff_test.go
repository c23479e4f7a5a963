package cutoff

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/polymktlab/poly-data/internal/model"
)

type fakeWriter struct {
	set map[string]time.Time
}

func (f *fakeWriter) SetCutoff(_ context.Context, marketID string, cutoff time.Time) error {
	if f.set == nil {
		f.set = map[string]time.Time{}
	}
	f.set[marketID] = cutoff
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolvePrefersStoredCutoff(t *testing.T) {
	stored := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w := &fakeWriter{}
	r := NewResolver(w, FallbackSkip)

	m := model.Market{
		MarketID: "m-1",
		Cutoff:   &stored,
		Raw:      json.RawMessage(`{"endDate":"2024-06-01T00:00:00Z"}`),
	}
	got, ok := r.Resolve(context.Background(), m, nil)
	if !ok || !got.Equal(stored) {
		t.Errorf("Resolve = (%v, %v), want stored %v", got, ok, stored)
	}
	if len(w.set) != 0 {
		t.Error("stored cutoff should not trigger a write")
	}
}

func TestResolveExtractsAndPersists(t *testing.T) {
	w := &fakeWriter{}
	r := NewResolver(w, FallbackSkip)

	m := model.Market{
		MarketID: "m-1",
		Raw:      json.RawMessage(`{"resolution":{"assertion_time":"2024-03-01T12:00:00Z"}}`),
	}
	got, ok := r.Resolve(context.Background(), m, nil)
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !ok || !got.Equal(want) {
		t.Fatalf("Resolve = (%v, %v), want %v", got, ok, want)
	}
	if !w.set["m-1"].Equal(want) {
		t.Errorf("persisted cutoff = %v, want %v", w.set["m-1"], want)
	}
}

func TestResolveFallbackPolicies(t *testing.T) {
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	lastTick := time.Date(2024, 3, 1, 23, 45, 0, 0, time.UTC)
	series := []model.PriceTick{
		{TokenID: "tok", TS: lastTick.Add(-time.Hour), Price: 0.4},
		{TokenID: "tok", TS: lastTick, Price: 0.5},
	}
	m := model.Market{MarketID: "m-1", Raw: json.RawMessage(`{}`)}

	tests := []struct {
		name   string
		policy Fallback
		series []model.PriceTick
		want   time.Time
		wantOK bool
	}{
		{"last uses final tick", FallbackLast, series, lastTick, true},
		{"last with no ticks skips", FallbackLast, nil, time.Time{}, false},
		{"now uses clock", FallbackNow, nil, now, true},
		{"skip excludes", FallbackSkip, series, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeWriter{}, tt.policy, WithClock(fixedClock(now)))
			got, ok := r.Resolve(context.Background(), m, tt.series)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("cutoff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotTimeClampsPastCutoff(t *testing.T) {
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	r := NewResolver(&fakeWriter{}, FallbackSkip, WithClock(fixedClock(now)))

	past := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := r.SnapshotTime(past); !got.Equal(past.Add(-time.Second)) {
		t.Errorf("past cutoff snapshot = %v, want %v", got, past.Add(-time.Second))
	}

	future := now.Add(time.Hour)
	if got := r.SnapshotTime(future); !got.Equal(now) {
		t.Errorf("future cutoff snapshot = %v, want now %v", got, now)
	}

	if got := r.SnapshotTime(time.Time{}); !got.Equal(now) {
		t.Errorf("zero cutoff snapshot = %v, want now %v", got, now)
	}
}

func TestBackfill(t *testing.T) {
	w := &fakeWriter{}
	r := NewResolver(w, FallbackSkip)

	markets := []model.Market{
		{MarketID: "m-1", Raw: json.RawMessage(`{"end_date_iso":"2024-05-01"}`)},
		{MarketID: "m-2", Raw: json.RawMessage(`{"no":"dates"}`)},
		{MarketID: "m-3", Raw: nil},
	}
	if got := r.Backfill(context.Background(), markets); got != 1 {
		t.Errorf("Backfill = %d, want 1", got)
	}
	if _, ok := w.set["m-1"]; !ok {
		t.Error("m-1 cutoff not persisted")
	}
}
