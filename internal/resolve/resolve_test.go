package resolve

import (
	"encoding/json"
	"testing"
	"time"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return m
}

func TestMarketID(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantOK  bool
	}{
		{"provider id wins", `{"id":"516710","market_id":"m-1","slug":"will-x"}`, "516710", true},
		{"numeric provider id", `{"id":516710}`, "516710", true},
		{"internal id next", `{"market_id":"m-1","slug":"will-x"}`, "m-1", true},
		{"slug last", `{"slug":"will-x"}`, "will-x", true},
		{"nothing", `{"question":"?"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MarketID(decode(t, tt.payload))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MarketID() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTokenIDs(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantYes string
		wantNo  string
	}{
		{
			name:    "token array",
			payload: `{"tokens":[{"token_id":"y1","outcome":"Yes"},{"token_id":"n1","outcome":"No"}]}`,
			wantYes: "y1",
			wantNo:  "n1",
		},
		{
			name:    "outcomeTokens array with camelCase ids",
			payload: `{"outcomeTokens":[{"tokenId":"y2","name":"YES"},{"tokenId":"n2","name":"NO"}]}`,
			wantYes: "y2",
			wantNo:  "n2",
		},
		{
			name:    "condition nested map",
			payload: `{"condition":{"tokens":{"yes":"y3","no":"n3"}}}`,
			wantYes: "y3",
			wantNo:  "n3",
		},
		{
			name:    "condition upper-case map",
			payload: `{"condition":{"tokens":{"YES":"y4","NO":"n4"}}}`,
			wantYes: "y4",
			wantNo:  "n4",
		},
		{
			name:    "flat keys",
			payload: `{"outcomeTokenYes":"y5","outcomeTokenNo":"n5"}`,
			wantYes: "y5",
			wantNo:  "n5",
		},
		{
			name:    "tokens dict",
			payload: `{"tokens":{"yes":"y6","no":"n6"}}`,
			wantYes: "y6",
			wantNo:  "n6",
		},
		{
			name:    "outcomeTokens dict",
			payload: `{"outcomeTokens":{"yes":"y7","no":"n7"}}`,
			wantYes: "y7",
			wantNo:  "n7",
		},
		{
			name:    "partial match retained",
			payload: `{"tokens":[{"token_id":"y8","outcome":"Yes"}]}`,
			wantYes: "y8",
			wantNo:  "",
		},
		{
			name:    "sides merged across layouts",
			payload: `{"tokens":[{"token_id":"y9","outcome":"Yes"}],"outcomeTokenNo":"n9"}`,
			wantYes: "y9",
			wantNo:  "n9",
		},
		{
			name:    "earlier layout wins per side",
			payload: `{"tokens":[{"id":"y10","outcome":"yes"}],"outcomeTokenYes":"other"}`,
			wantYes: "y10",
			wantNo:  "",
		},
		{
			name:    "no tokens anywhere",
			payload: `{"question":"?"}`,
			wantYes: "",
			wantNo:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yes, no := TokenIDs(decode(t, tt.payload))
			if yes != tt.wantYes || no != tt.wantNo {
				t.Errorf("TokenIDs() = (%q, %q), want (%q, %q)", yes, no, tt.wantYes, tt.wantNo)
			}
		})
	}
}

func TestPickYesNo_FirstMatchKept(t *testing.T) {
	arr := []any{
		map[string]any{"token_id": "y1", "outcome": "Yes"},
		map[string]any{"token_id": "y2", "outcome": "yes"},
		map[string]any{"token_id": "n1", "outcome": "No"},
		"not-an-object",
	}
	yes, no := PickYesNo(arr)
	if yes != "y1" || no != "n1" {
		t.Errorf("PickYesNo() = (%q, %q), want (y1, n1)", yes, no)
	}
}

func TestCutoff(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string // RFC3339, "" means no cutoff
	}{
		{
			name:    "nested resolution wins over end date",
			payload: `{"resolution":{"assertion_time":"2024-03-01T10:00:00Z"},"endDate":"2024-04-01T00:00:00Z"}`,
			want:    "2024-03-01T10:00:00Z",
		},
		{
			name:    "flat resolved_at",
			payload: `{"resolved_at":"2024-03-02T09:30:00Z"}`,
			want:    "2024-03-02T09:30:00Z",
		},
		{
			name:    "end date fallback",
			payload: `{"end_date_iso":"2024-05-01T00:00:00Z"}`,
			want:    "2024-05-01T00:00:00Z",
		},
		{
			name:    "closed time fallback",
			payload: `{"closedAt":"2024-05-02T12:00:00+02:00"}`,
			want:    "2024-05-02T10:00:00Z",
		},
		{
			name:    "condition close as last resort",
			payload: `{"condition":{"closeTime":"2024-06-01T00:00:00Z"}}`,
			want:    "2024-06-01T00:00:00Z",
		},
		{
			name:    "unparseable values skipped",
			payload: `{"resolved_at":"soon","endDate":"2024-07-01T00:00:00Z"}`,
			want:    "2024-07-01T00:00:00Z",
		},
		{
			name:    "nothing found",
			payload: `{"question":"?"}`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cutoff(decode(t, tt.payload))
			if tt.want == "" {
				if ok {
					t.Fatalf("Cutoff() = (%v, true), want miss", got)
				}
				return
			}
			want, _ := time.Parse(time.RFC3339, tt.want)
			if !ok || !got.Equal(want) {
				t.Errorf("Cutoff() = (%v, %v), want %v", got, ok, want)
			}
		})
	}
}

func TestConditionID(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"condition":{"id":"0xabc"}}`, "0xabc"},
		{`{"condition_id":"0xdef"}`, "0xdef"},
		{`{"conditionId":"0x123"}`, "0x123"},
		{`{"condition":{"id":"0xabc"},"condition_id":"0xdef"}`, "0xabc"},
		{`{}`, ""},
	}

	for _, tt := range tests {
		got, _ := ConditionID(decode(t, tt.payload))
		if got != tt.want {
			t.Errorf("ConditionID(%s) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestParseISO(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
	}{
		{"2024-01-15T12:30:45Z", true},
		{"2024-01-15T12:30:45.123456Z", true},
		{"2024-01-15T12:30:45+02:00", true},
		{"2024-01-15T12:30:45", true},
		{"2024-01-15", true},
		{"", false},
		{"not-a-time", false},
	}

	for _, tt := range tests {
		got, ok := ParseISO(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseISO(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if ok && got.Location() != time.UTC {
			t.Errorf("ParseISO(%q) not normalized to UTC", tt.input)
		}
	}
}

func TestEndTime(t *testing.T) {
	raw := decode(t, `{"endTime":"2024-09-01T00:00:00Z"}`)
	got, ok := EndTime(raw)
	want, _ := time.Parse(time.RFC3339, "2024-09-01T00:00:00Z")
	if !ok || !got.Equal(want) {
		t.Errorf("EndTime() = (%v, %v), want %v", got, ok, want)
	}
}
