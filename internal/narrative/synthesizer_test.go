package narrative

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
)

func newTestSynth(llm LLM) *Synthesizer {
	return New(llm, metrics.NewRegistry(prometheus.NewRegistry()))
}

func TestShouldBypass_WeakSignalWithoutConflicts(t *testing.T) {
	assert.True(t, ShouldBypass(0.05, false, 1, "all", false))
}

func TestShouldBypass_ConflictsOverrideWeakSignal(t *testing.T) {
	assert.False(t, ShouldBypass(0.05, true, 1, "all", false))
}

func TestShouldBypass_SlowElapsedForcesBypass(t *testing.T) {
	assert.True(t, ShouldBypass(0.9, true, 7, "all", false))
}

func TestShouldBypass_ExecutionModeForcesBypass(t *testing.T) {
	assert.True(t, ShouldBypass(0.9, false, 1, "execution", false))
}

func TestShouldBypass_ForceAIOverridesEverything(t *testing.T) {
	assert.False(t, ShouldBypass(0.01, false, 100, "execution", true))
}

func TestSynthesize_RejectUsesDeterministicTemplate(t *testing.T) {
	s := newTestSynth(nil)
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionReject, PrimaryReason: "RULE_2_ADX_TREND"}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.Contains(t, analysis.ExecutiveSummary, "AUTOMATED REJECTION")
	for _, persp := range analysis.Horizons {
		assert.Equal(t, 0.0, persp.Confidence)
	}
}

func TestSynthesize_LowConfidenceWaitUsesDeterministicTemplate(t *testing.T) {
	s := newTestSynth(stubLLM{text: "should not be used"})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionWait, Confidence: 10, PrimaryReason: "weak signal"}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.NotContains(t, analysis.ExecutiveSummary, "should not be used")
}

func TestSynthesize_CallsLLMWhenNotBypassed(t *testing.T) {
	s := newTestSynth(stubLLM{text: `{"executive_summary":"narrated summary","horizons":{},"options_fno":"NONE","market_sentiment":60}`})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.Equal(t, "narrated summary", analysis.ExecutiveSummary)
	assert.Equal(t, 60.0, analysis.MarketSentiment)
}

func TestSynthesize_ClampsHorizonConfidenceToSystemConfidence(t *testing.T) {
	s := newTestSynth(stubLLM{text: `{"executive_summary":"narrated","horizons":{"swing":{"action":"ACCEPT","confidence":95}}}`})
	qc := QuantContext{
		Ticker:        "ACME",
		DecisionState: domain.DecisionAccept,
		Confidence:    50,
		Decisions: map[domain.Horizon]domain.TradingDecision{
			domain.HorizonSwing: {DecisionState: domain.DecisionAccept, Confidence: 90},
		},
	}
	analysis := s.Synthesize(context.Background(), qc, false)
	persp, ok := analysis.Horizons[domain.HorizonSwing]
	require.True(t, ok)
	assert.LessOrEqual(t, persp.Confidence, qc.Confidence)
}

func TestSynthesize_MalformedJSONFallsBackToDeterministicTemplate(t *testing.T) {
	s := newTestSynth(stubLLM{text: "not valid json at all"})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80, PrimaryReason: "weak signal"}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.Contains(t, analysis.ExecutiveSummary, "Deterministic summary")
}

func TestSynthesize_UnwrapsSingleKeySchemaWrapper(t *testing.T) {
	s := newTestSynth(stubLLM{text: `{"AIAnalysisResult":{"executive_summary":"wrapped payload","horizons":{}}}`})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.Equal(t, "wrapped payload", analysis.ExecutiveSummary)
}

func TestSynthesize_FiltersSignalsWithNullValueAtAnalysis(t *testing.T) {
	payload := `{"executive_summary":"ok","horizons":{"swing":{"action":"ACCEPT","confidence":10,
		"signals":[{"name":"RSI_OVERSOLD","value_at_analysis":28.4},{"name":"MACD_CROSS","value_at_analysis":null}]}}}`
	s := newTestSynth(stubLLM{text: payload})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	persp, ok := analysis.Horizons[domain.HorizonSwing]
	require.True(t, ok)
	assert.Equal(t, []string{"RSI_OVERSOLD"}, persp.Signals)
}

func TestSynthesize_RepairsMissingNumericHorizonFieldToZero(t *testing.T) {
	payload := `{"executive_summary":"ok","horizons":{"swing":{"action":"ACCEPT"}}}`
	s := newTestSynth(stubLLM{text: payload})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	persp, ok := analysis.Horizons[domain.HorizonSwing]
	require.True(t, ok)
	assert.Equal(t, 0.0, persp.Confidence)
}

func TestSynthesize_StringifiesDictValuedRationale(t *testing.T) {
	payload := `{"executive_summary":"ok","horizons":{"swing":{"action":"ACCEPT","confidence":10,
		"rationale":{"thesis":"strong breakout","risk":"earnings gap"}}}}`
	s := newTestSynth(stubLLM{text: payload})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	persp, ok := analysis.Horizons[domain.HorizonSwing]
	require.True(t, ok)
	assert.Contains(t, persp.Rationale, "strong breakout")
}

func TestSynthesize_CoercesStringSentimentToFloat(t *testing.T) {
	payload := `{"executive_summary":"ok","horizons":{},"market_sentiment":"Bullish (72%)"}`
	s := newTestSynth(stubLLM{text: payload})
	qc := QuantContext{Ticker: "ACME", DecisionState: domain.DecisionAccept, Confidence: 80}
	analysis := s.Synthesize(context.Background(), qc, false)
	assert.Equal(t, 72.0, analysis.MarketSentiment)
}

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Generate(context.Context, string, string) (string, error) {
	return s.text, s.err
}
