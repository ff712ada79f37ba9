package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/cache"
	appcontext "github.com/sawpanic/equitycore/internal/context"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/governor"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/narrative"
	"github.com/sawpanic/equitycore/internal/news"
	"github.com/sawpanic/equitycore/internal/provider"
	"github.com/sawpanic/equitycore/internal/risk"
	"github.com/sawpanic/equitycore/internal/sensor"
	"github.com/sawpanic/equitycore/internal/trading"
)

type stubContextProvider struct{}

func (stubContextProvider) FetchAnalystRatings(context.Context, string) ([]domain.AnalystRating, error) {
	return nil, nil
}
func (stubContextProvider) FetchInsiderActivity(context.Context, string) ([]domain.InsiderTrade, error) {
	return nil, nil
}
func (stubContextProvider) FetchOptionSentiment(context.Context, string) (*domain.OptionSentiment, error) {
	return nil, nil
}
func (stubContextProvider) FetchNextEarnings(context.Context, string) (*domain.EarningsEvent, error) {
	return nil, nil
}

type stubNewsSource struct{}

func (stubNewsSource) Name() string { return "stub" }
func (stubNewsSource) FetchHeadlines(context.Context, string) ([]domain.NewsItem, error) {
	return []domain.NewsItem{{Title: "ACME reports quarterly earnings", Publisher: "Wire", PublishedAt: time.Now()}}, nil
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)
	log := zerolog.Nop()

	chain := provider.NewChain([]provider.DataProvider{&provider.MockProvider{NameStr: "mock", Seed: 100}}, m, log)
	c := cache.NewRedisCache(nil, "v1", log)
	marketSensor := sensor.NewMarketDataSensor(chain, c, time.Minute, m, log)
	contextSensor := appcontext.New(stubContextProvider{}, c, time.Minute, m, log)
	newsAgg := news.New(stubNewsSource{})
	gov := governor.New()
	tradingSys := trading.New(gov, risk.New(risk.DefaultParameters()))
	synth := narrative.New(nil, m)

	return New(marketSensor, contextSensor, newsAgg, gov, tradingSys, synth, m, log)
}

func TestAnalyze_ProducesInternallyConsistentResponse(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Analyze(context.Background(), Request{Ticker: "ACME", Mode: ModeAll}, nil)

	assert.Equal(t, "ACME", resp.Meta.Ticker)
	assert.NotEmpty(t, resp.Meta.AnalysisID)
	assert.GreaterOrEqual(t, resp.System.Confidence, 0.0)
	assert.LessOrEqual(t, resp.System.Confidence, 100.0)

	if resp.AIAnalysis != nil {
		for _, persp := range resp.AIAnalysis.Horizons {
			assert.LessOrEqual(t, persp.Confidence, resp.System.Confidence)
		}
	}
}

func TestAnalyze_IntradayModeSkipsFundamentals(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Analyze(context.Background(), Request{Ticker: "ACME", Mode: ModeIntraday}, nil)
	assert.Equal(t, "ACME", resp.Meta.Ticker)
}

func TestAnalyze_RespectsGlobalDeadline(t *testing.T) {
	o := newTestOrchestrator(t)
	start := time.Now()
	resp := o.Analyze(context.Background(), Request{Ticker: "ACME", Mode: ModeAll}, nil)
	elapsed := time.Since(start)
	require.Less(t, elapsed, globalDeadline+time.Second)
	assert.False(t, resp.System.LatencySLAViolated)
}

func TestDetectHardVetoes_FiresOnRegimeValuationConflict(t *testing.T) {
	adx := 10.0
	target := 100.0
	tech := domain.Technicals{ADX: &adx}
	mc := &domain.MarketContext{PriceTargetMean: &target}
	vetoes := detectHardVetoes(tech, mc, 110)
	assert.Contains(t, vetoes, "REGIME_VALUATION_CONFLICT")
}

func TestDetectHardVetoes_SilentWhenTrending(t *testing.T) {
	adx := 30.0
	target := 100.0
	tech := domain.Technicals{ADX: &adx}
	mc := &domain.MarketContext{PriceTargetMean: &target}
	vetoes := detectHardVetoes(tech, mc, 110)
	assert.Empty(t, vetoes)
}

func TestHasConflict_TrueWhenAcceptAndRejectCoexist(t *testing.T) {
	decisions := map[domain.Horizon]domain.TradingDecision{
		domain.HorizonIntraday: {DecisionState: domain.DecisionAccept},
		domain.HorizonSwing:    {DecisionState: domain.DecisionReject},
	}
	assert.True(t, hasConflict(decisions))
}

func TestHasConflict_FalseWhenAligned(t *testing.T) {
	decisions := map[domain.Horizon]domain.TradingDecision{
		domain.HorizonIntraday: {DecisionState: domain.DecisionAccept},
		domain.HorizonSwing:    {DecisionState: domain.DecisionWait},
	}
	assert.False(t, hasConflict(decisions))
}

func testSignal() domain.AlgoSignal {
	return domain.AlgoSignal{
		Trend:    domain.ScoreDetail{Value: 1, Min: 0, Max: 1},
		Momentum: domain.ScoreDetail{Value: 0.5, Min: -1, Max: 1},
		PWin:     0.9,
	}
}

func TestSignalsFor_IsExactlyMinusOneOnHardVeto(t *testing.T) {
	s := signalsFor(testSignal(), nil, 100, []string{"REGIME_VALUATION_CONFLICT"}, domain.DecisionReject)
	assert.Equal(t, -1.0, s.PrimarySignalStrength)
}

func TestSignalsFor_IsWeightedSumOfNormalizedComponentsWhenNoVeto(t *testing.T) {
	s := signalsFor(testSignal(), nil, 100, nil, domain.DecisionAccept)

	assert.Equal(t, 1.0, s.Components.Trend)
	assert.Equal(t, 0.5, s.Components.Momentum)
	assert.Equal(t, 1.0, s.Components.Expectancy)
	assert.Equal(t, 0.0, s.Components.Valuation)

	want := 0.25*1.0 + 0.25*0.5 + 0.25*1.0 + 0.25*0.0
	assert.InDelta(t, want, s.PrimarySignalStrength, 1e-9)
	assert.Equal(t, "Z-SCORE_CLAMPED", s.NormalizationMethod)
	assert.Equal(t, 0.25, s.ExpectancyWeighting)
	assert.True(t, s.Actionable)
}

func TestSignalsFor_ValuationComponentFromDCFUpside(t *testing.T) {
	upside := 110.0 // 10% upside over a 100 current price, scaled by 0.5 -> 0.2
	fund := &domain.FundamentalsResult{
		DCF: domain.DCFResult{Status: domain.ValuationValid, ValuePerShare: &upside},
	}
	s := signalsFor(testSignal(), fund, 100, nil, domain.DecisionAccept)
	assert.InDelta(t, 0.2, s.Components.Valuation, 1e-9)
}

func TestSignalsFor_ValuationComponentFallsBackToQualitativeLabel(t *testing.T) {
	fund := &domain.FundamentalsResult{
		Inferences: domain.FundamentalInferences{Valuation: "OVERVALUED"},
	}
	s := signalsFor(testSignal(), fund, 100, nil, domain.DecisionAccept)
	assert.Equal(t, -1.0, s.Components.Valuation)
}
