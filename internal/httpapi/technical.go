package httpapi

import (
	"context"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/indicator"
	"github.com/sawpanic/equitycore/internal/scoring"
)

// computeTechnical fetches a single interval's bar series through the
// MarketDataSensor and runs it through IndicatorEngine/ScoringEngine. It
// also doubles as the pre-flight liveness check /analysis and
// /research/.../report use to distinguish a terminal technical-pipeline
// failure (500) from a normal request (spec.md §7).
func (s *Server) computeTechnical(ctx context.Context, ticker, interval string) (domain.Series, domain.Technicals, domain.AlgoSignal, error) {
	series, err := s.marketSensor.Fetch(ctx, ticker, interval)
	if err != nil {
		return domain.Series{}, domain.Technicals{}, domain.AlgoSignal{}, err
	}
	tech := indicator.Compute(series)
	signal := scoring.Score(tech)
	return series, tech, signal, nil
}
