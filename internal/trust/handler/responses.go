package handler

import (
	"time"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
)

// QueryResponse is the HTTP response for POST /trust/query.
type QueryResponse struct {
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Paths      []PathResponse `json:"paths"`
	Truncated  bool           `json:"truncated"`
	ComputedAt time.Time      `json:"computed_at"`
}

// PathResponse is one contributing path in the explanation.
type PathResponse struct {
	Principals      []string `json:"principals"`
	RawConfidence   float64  `json:"raw_confidence"`
	AppliedDiscount float64  `json:"applied_discount"`
}

// FromResult converts a domain Result to an HTTP response.
func FromResult(result domain.Result) *QueryResponse {
	paths := make([]PathResponse, 0, len(result.Explanation))
	for _, p := range result.Explanation {
		principals := make([]string, 0, len(p.Principals))
		for _, principalID := range p.Principals {
			principals = append(principals, principalID.String())
		}
		paths = append(paths, PathResponse{
			Principals:      principals,
			RawConfidence:   p.RawConfidence,
			AppliedDiscount: p.AppliedDiscount,
		})
	}
	return &QueryResponse{
		Score:      result.Score,
		Confidence: result.Confidence,
		Paths:      paths,
		Truncated:  result.Truncated,
		ComputedAt: result.ComputedAt,
	}
}
