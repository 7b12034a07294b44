package keygen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/streamsim/dataflow-sim/pkg/errors"
)

func init() {
	Register(TypeHTTP, func(cfg *SourceConfig) (BatchSource, error) {
		url := cfg.GetString("url", "")
		if url == "" {
			return nil, fmt.Errorf("http source %q: url option is required", cfg.Name)
		}
		timeout := time.Duration(cfg.GetInt("timeout_seconds", 10)) * time.Second
		return &httpSource{
			name:   cfg.Name,
			url:    url,
			client: &http.Client{Timeout: timeout},
		}, nil
	})
}

// httpBatchResponse is the wire shape returned by an upstream batch
// endpoint: the full sequence of per-step key batches for one stream.
type httpBatchResponse struct {
	Batches [][]string `json:"batches"`
}

// httpSource pulls a stream's full batch sequence from a remote endpoint
// once, then replays it step by step.
type httpSource struct {
	name    string
	url     string
	client  *http.Client
	batches [][]string
	loaded  bool
	cursor  int
}

func (s *httpSource) Name() string { return s.name }

func (s *httpSource) Next(ctx context.Context) ([]string, bool, error) {
	if !s.loaded {
		if err := s.load(ctx); err != nil {
			return nil, false, err
		}
	}
	if s.cursor >= len(s.batches) {
		return nil, false, nil
	}
	batch := s.batches[s.cursor]
	s.cursor++
	return batch, true, nil
}

func (s *httpSource) load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInputError, "building batch source request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInputError, "fetching batch source", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.CodeInputError, fmt.Sprintf("batch source %s returned status %d", s.url, resp.StatusCode))
	}

	var payload httpBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return apperrors.Wrap(apperrors.CodeInputError, "decoding batch source response", err)
	}
	s.batches = payload.Batches
	s.loaded = true
	return nil
}

func (s *httpSource) Close() error { return nil }
