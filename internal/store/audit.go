package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// AuditEntry describes one external call for the append-only ingest log.
type AuditEntry struct {
	RunID    uuid.UUID
	MarketID *string
	Endpoint string
	URL      string
	Params   url.Values
	Status   int
	Payload  []byte // raw response body; hashed, not stored
}

// RecordIngest appends an audit row. The log is informational: it is never
// updated or deleted, and it is not consulted for dedup decisions.
func (s *Store) RecordIngest(ctx context.Context, e AuditEntry) error {
	paramsJSON, err := json.Marshal(flattenParams(e.Params))
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO ingest_log (run_id, market_id, endpoint, url, params, status, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.RunID, e.MarketID, e.Endpoint, e.URL, paramsJSON, e.Status, PayloadHash(e.Payload))
	if err != nil {
		return fmt.Errorf("insert ingest log: %w", err)
	}
	return nil
}

// flattenParams collapses single-valued url.Values into a flat map for a
// compact params column.
func flattenParams(params url.Values) map[string]string {
	out := make(map[string]string, len(params))
	for k, vs := range params {
		out[k] = strings.Join(vs, ",")
	}
	return out
}

// PayloadHash computes a stable sha256 over the canonicalized payload:
// deterministic key ordering, no insignificant whitespace. Byte-different
// but semantically identical payloads hash the same, which is what makes
// the log usable for replay debugging.
func PayloadHash(payload []byte) string {
	canonical := canonicalJSON(payload)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// canonicalJSON re-encodes a JSON document with sorted object keys and no
// whitespace. Invalid JSON is hashed as-is.
func canonicalJSON(payload []byte) []byte {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return payload
	}
	var sb strings.Builder
	writeCanonical(&sb, v)
	return []byte(sb.String())
}

func writeCanonical(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			sb.Write(kb)
			sb.WriteByte(':')
			writeCanonical(sb, t[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, item)
		}
		sb.WriteByte(']')
	default:
		b, _ := json.Marshal(t)
		sb.Write(b)
	}
}
