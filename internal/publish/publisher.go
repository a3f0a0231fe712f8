// Package publish hands newly ingested mints to the external analyzer.
package publish

import (
	"context"
	"sync"

	"token-radar/internal/domain"
)

// DefaultAnalysisTopic is the Kafka topic the analyzer consumes.
const DefaultAnalysisTopic = "token-analysis-requests"

// AnalysisRequest asks the analyzer to score a newly inserted mint.
type AnalysisRequest struct {
	Mint        string        `json:"mint"`
	Source      domain.Source `json:"source"`
	RequestedAt int64         `json:"requestedAt"` // ms
}

// Publisher delivers analysis requests.
type Publisher interface {
	PublishAnalysisRequest(ctx context.Context, req AnalysisRequest) error
	Close() error
}

// NopPublisher drops every request. Used when no broker is configured.
type NopPublisher struct{}

// PublishAnalysisRequest implements Publisher.
func (NopPublisher) PublishAnalysisRequest(context.Context, AnalysisRequest) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// MemoryPublisher records requests in memory.
type MemoryPublisher struct {
	mu       sync.Mutex
	requests []AnalysisRequest
	Err      error // returned by every publish when set
}

// PublishAnalysisRequest implements Publisher.
func (p *MemoryPublisher) PublishAnalysisRequest(_ context.Context, req AnalysisRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.requests = append(p.requests, req)
	return nil
}

// Requests returns a copy of everything published so far.
func (p *MemoryPublisher) Requests() []AnalysisRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AnalysisRequest(nil), p.requests...)
}

// Close implements Publisher.
func (p *MemoryPublisher) Close() error { return nil }

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*MemoryPublisher)(nil)
)
