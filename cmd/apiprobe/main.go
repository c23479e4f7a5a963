// apiprobe probes the price-history endpoint variants for a token and prints
// the first combination that yields a usable sample row. The upstream schema
// is unstable; this tool finds the working (path, param, query) combination
// before committing it to configuration.
// Usage: go run ./cmd/apiprobe --token <token_id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

var paths = []string{"/prices-history", "/price-history", "/prices"}
var paramKeys = []string{"market", "token_id", "tokenId"}

type queryShape struct {
	name  string
	build func() url.Values
}

func main() {
	token := flag.String("token", "", "token id to probe")
	baseURL := flag.String("clob-url", "https://clob.polymarket.com", "CLOB API base URL")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *token == "" {
		logger.Error("missing required --token")
		os.Exit(1)
	}

	now := time.Now().UTC()
	shapes := []queryShape{
		{name: "interval=max", build: func() url.Values {
			return url.Values{"interval": {"max"}}
		}},
		{name: "bounded 7d", build: func() url.Values {
			return url.Values{
				"startTs": {strconv.FormatInt(now.Add(-7*24*time.Hour).Unix(), 10)},
				"endTs":   {strconv.FormatInt(now.Unix(), 10)},
			}
		}},
		{name: "no params", build: func() url.Values {
			return url.Values{}
		}},
	}

	client := &http.Client{Timeout: *timeout}
	ctx := context.Background()

	for _, path := range paths {
		for _, key := range paramKeys {
			for _, shape := range shapes {
				query := shape.build()
				query.Set(key, *token)

				sample, status, err := probe(ctx, client, *baseURL+path, query)
				if err != nil {
					logger.Info("probe failed",
						"path", path, "param", key, "shape", shape.name, "err", err)
					continue
				}
				if sample == nil {
					logger.Info("probe unusable",
						"path", path, "param", key, "shape", shape.name, "status", status)
					continue
				}

				logger.Info("probe succeeded",
					"path", path, "param", key, "shape", shape.name, "status", status)
				fmt.Printf("sample row: %s\n", sample)
				return
			}
		}
	}

	logger.Error("no combination yielded a usable history row")
	os.Exit(1)
}

// probe performs one GET and returns the first history row if the body
// parses into a known envelope with at least one row.
func probe(ctx context.Context, client *http.Client, fullURL string, query url.Values) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}

	var envelope struct {
		History []json.RawMessage `json:"history"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, resp.StatusCode, nil
	}
	rows := envelope.History
	if rows == nil {
		rows = envelope.Data
	}
	if len(rows) == 0 {
		return nil, resp.StatusCode, nil
	}
	return rows[0], resp.StatusCode, nil
}
