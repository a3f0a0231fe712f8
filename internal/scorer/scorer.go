// Package scorer is the client side of the external reputation scorer.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"token-radar/internal/domain"
)

// Scorer returns a fresh analysis for a mint.
// A nil *domain.Analysis with a nil error means the scorer had no result.
type Scorer interface {
	Analyze(ctx context.Context, mint string) (*domain.Analysis, error)
}

// DefaultTimeout bounds a single scorer call.
const DefaultTimeout = 10 * time.Second

// HTTPScorer calls POST {endpoint}/analyze with {"mint": ...}.
// 404 and 204 are reported as "no analysis".
type HTTPScorer struct {
	endpoint string
	client   *http.Client
	apiKey   string
}

// Option configures HTTPScorer.
type Option func(*HTTPScorer)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPScorer) {
		s.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPScorer) {
		s.client = client
	}
}

// WithAPIKey sends key as a Bearer token.
func WithAPIKey(key string) Option {
	return func(s *HTTPScorer) {
		s.apiKey = key
	}
}

// NewHTTPScorer creates a scorer client for endpoint.
func NewHTTPScorer(endpoint string, opts ...Option) *HTTPScorer {
	s := &HTTPScorer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type analyzeRequest struct {
	Mint string `json:"mint"`
}

type analyzeResponse struct {
	Mint        string   `json:"mint"`
	Name        *string  `json:"name"`
	TrustRating *float64 `json:"trustRating"`
	RiskFlags   []string `json:"riskFlags"`
}

// Analyze implements Scorer.
func (s *HTTPScorer) Analyze(ctx context.Context, mint string) (*domain.Analysis, error) {
	body, err := json.Marshal(analyzeRequest{Mint: mint})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return nil, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scorer status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode scorer response: %w", err)
	}
	if out.TrustRating == nil {
		return nil, nil
	}

	if out.Mint == "" {
		out.Mint = mint
	}
	return &domain.Analysis{
		Mint:        out.Mint,
		Name:        out.Name,
		TrustRating: *out.TrustRating,
		RiskFlags:   out.RiskFlags,
	}, nil
}

var _ Scorer = (*HTTPScorer)(nil)
