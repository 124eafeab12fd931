package astro

import (
	"context"

	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/astro/cache"
	"github.com/jyotish-ai/server/internal/astro/chart"
	"github.com/jyotish-ai/server/internal/astro/normalize"
)

// Fetcher is satisfied by *chart.Client.
type Fetcher interface {
	Fetch(ctx context.Context, ct model.ChartType, q model.BirthQuery) model.ChartResponse
}

// Service answers chart tool calls: normalise, then read through the cache.
type Service struct {
	normalizer *normalize.Normalizer
	cache      *cache.Cache
	fetcher    Fetcher
	table      *chart.Table
}

func NewService(normalizer *normalize.Normalizer, c *cache.Cache, fetcher Fetcher, table *chart.Table) *Service {
	return &Service{normalizer: normalizer, cache: c, fetcher: fetcher, table: table}
}

// Chart never returns a Go error; failures are encoded in the response.
func (s *Service) Chart(ctx context.Context, dob, tob, city, code string) model.ChartResponse {
	req, toolErr := s.normalizer.Normalize(ctx, dob, tob, city, code)
	if toolErr != nil {
		return toolErr.Response()
	}
	return s.cache.GetOrFetch(ctx, req.Query, req.Type, func(ctx context.Context) model.ChartResponse {
		return s.fetcher.Fetch(ctx, req.Type, req.Query)
	})
}

// Codes lists every chart code the generic tool accepts.
func (s *Service) Codes() []string {
	return s.table.Codes()
}
