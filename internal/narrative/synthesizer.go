// Package narrative implements NarrativeSynthesizer (spec.md §4.12): an
// interface to an external LLM plus a deterministic bypass, grounded on
// original_source/app/ai.py's interpret_advanced and
// _create_deterministic_analysis.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
)

// QuantContext is the fully compiled quantitative payload handed to the LLM.
type QuantContext struct {
	Ticker       string
	CurrentPrice float64
	Decisions    map[domain.Horizon]domain.TradingDecision
	Signals      map[domain.Horizon]domain.AlgoSignal
	Fundamentals *domain.FundamentalsResult
	NewsDigest   *domain.NewsDigest
	MarketCtx    *domain.MarketContext
	Confidence   float64
	DecisionState domain.DecisionState
	PrimaryReason string
}

// LLM is the provider capability this package depends on; a real
// implementation wraps a hosted model, kept out of scope per spec.md §1.
type LLM interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Synthesizer produces the ai_analysis{} block, falling back to a fixed
// template when bypass conditions hold.
type Synthesizer struct {
	llm     LLM
	metrics *metrics.Registry
}

// New builds a Synthesizer over llm (nil is valid: every call then takes the
// deterministic bypass path).
func New(llm LLM, m *metrics.Registry) *Synthesizer {
	return &Synthesizer{llm: llm, metrics: m}
}

// ShouldBypass implements the narrative gate from spec.md §4.11 step 6: skip
// the LLM on a weak uncorroborated signal, when the budget is nearly spent,
// or for execution-mode requests, unless forceAI overrides it.
func ShouldBypass(signalStrength float64, hasConflicts bool, elapsedSeconds float64, mode string, forceAI bool) bool {
	if forceAI {
		return false
	}
	if signalStrength < 0.15 && !hasConflicts {
		return true
	}
	if elapsedSeconds > 6 {
		return true
	}
	if mode == "execution" {
		return true
	}
	return false
}

// Synthesize returns the narrated analysis, using the LLM unless bypass is
// true or decision state/confidence force the deterministic template.
func (s *Synthesizer) Synthesize(ctx context.Context, qc QuantContext, bypass bool) domain.AIAnalysis {
	if bypass || qc.DecisionState == domain.DecisionReject || (qc.DecisionState == domain.DecisionWait && qc.Confidence < 30) || s.llm == nil {
		s.metrics.NarrativeBypass.Inc()
		return deterministicAnalysis(qc)
	}

	prompt := buildPrompt(qc)
	raw, err := s.llm.Generate(ctx, systemInstruction, prompt)
	if err != nil {
		return deterministicAnalysis(qc)
	}

	analysis := parseAndCoerce(raw, qc)
	return analysis
}

const systemInstruction = `You are a senior quantitative strategist. Output a single JSON object ` +
	`matching the AIAnalysis schema. All four horizon perspectives must be populated. ` +
	`Confidence must never exceed the provided system confidence.`

func buildPrompt(qc QuantContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\nSystem Confidence: %.1f\nDecision State: %s\n", qc.Ticker, qc.Confidence, qc.DecisionState)
	for _, h := range domain.AllHorizons {
		if d, ok := qc.Decisions[h]; ok {
			fmt.Fprintf(&b, "%s: %s conf=%.1f\n", h, d.DecisionState, d.Confidence)
		}
	}
	return b.String()
}

// parseAndCoerce applies the defensive coercions spec.md §4.12 requires of a
// raw LLM JSON payload: unwrap single-key schema wrappers, stringify
// dict-valued text fields, repair a missing horizon confidence to 0.0
// (missing target/stop/entry levels stay null), coerce sentiment to a
// float, and drop signals with a null
// value_at_analysis. A horizon absent or malformed in the payload falls
// back to its deterministic perspective rather than a zero value.
func parseAndCoerce(raw string, qc QuantContext) domain.AIAnalysis {
	var generic map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &generic); err != nil {
		return deterministicAnalysis(qc)
	}
	generic = unwrapSingleKeyWrapper(generic)

	summary := stringify(generic["executive_summary"])
	if summary == "" {
		summary = fmt.Sprintf("Analysis for %s", qc.Ticker)
	}

	optionsFNO := stringify(generic["options_fno"])
	if optionsFNO == "" {
		optionsFNO = "NONE: data absent or trading locked"
	}

	rawHorizons, _ := generic["horizons"].(map[string]any)
	horizons := make(map[domain.Horizon]domain.HorizonPerspective, len(domain.AllHorizons))
	for _, h := range domain.AllHorizons {
		fallback := deterministicHorizon(qc, h)
		if rawHorizon, ok := rawHorizons[string(h)].(map[string]any); ok {
			horizons[h] = coerceHorizon(rawHorizon, qc.Confidence, fallback)
		} else {
			horizons[h] = fallback
		}
	}

	return domain.AIAnalysis{
		ExecutiveSummary: summary,
		Horizons:         horizons,
		OptionsFNO:       optionsFNO,
		MarketSentiment:  coerceSentiment(generic["market_sentiment"]),
	}
}

// stripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper some LLMs
// add around the JSON body despite the response-mime-type constraint.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.Contains(text, "```json"):
		if parts := strings.SplitN(text, "```json", 2); len(parts) == 2 {
			text = strings.SplitN(parts[1], "```", 2)[0]
		}
	case strings.Contains(text, "```"):
		if parts := strings.SplitN(text, "```", 3); len(parts) >= 2 {
			text = parts[1]
		}
	}
	return strings.TrimSpace(text)
}

// unwrapSingleKeyWrapper handles the model occasionally nesting the whole
// payload under one top-level key (e.g. {"AIAnalysisResult": {...}}).
func unwrapSingleKeyWrapper(m map[string]any) map[string]any {
	if len(m) != 1 {
		return m
	}
	for _, v := range m {
		if inner, ok := v.(map[string]any); ok {
			return inner
		}
	}
	return m
}

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// coerceSentiment handles market_sentiment arriving as a number, a bare
// label string, or an object carrying a "score" field.
func coerceSentiment(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		cleaned := nonNumeric.ReplaceAllString(val, "")
		if cleaned == "" {
			return 50.0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 50.0
		}
		return f
	case map[string]any:
		if score, ok := asFloat(val["score"]); ok {
			return score
		}
		return 50.0
	default:
		return 50.0
	}
}

// coerceHorizon repairs one horizon object from the raw payload: a missing
// or malformed confidence becomes 0.0, every other missing or malformed
// field keeps fallback's deterministic value, and confidence is clamped to
// the authority ceiling.
func coerceHorizon(raw map[string]any, systemConfidence float64, fallback domain.HorizonPerspective) domain.HorizonPerspective {
	persp := fallback

	if action, ok := raw["action"].(string); ok && action != "" {
		persp.Action = domain.DecisionState(action)
	}
	if conf, ok := asFloat(raw["confidence"]); ok {
		persp.Confidence = conf
	} else {
		persp.Confidence = 0
	}
	if persp.Confidence > systemConfidence {
		persp.Confidence = systemConfidence
	}
	if target, ok := asFloat(raw["target"]); ok {
		persp.Target = &target
	}
	if stop, ok := asFloat(raw["stop"]); ok {
		persp.Stop = &stop
	}
	if low, lok := asFloat(raw["entry_low"]); lok {
		if high, hok := asFloat(raw["entry_high"]); hok {
			persp.EntryZone = &domain.PriceZone{Low: low, High: high}
		}
	}
	if rationale := stringify(raw["rationale"]); rationale != "" {
		persp.Rationale = rationale
	}
	persp.Signals = coerceSignals(raw["signals"])
	return persp
}

// coerceSignals drops every signal object missing a non-null
// value_at_analysis and reduces the survivors to their name.
func coerceSignals(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var signals []string
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if obj["value_at_analysis"] == nil {
			continue
		}
		name, _ := obj["name"].(string)
		if name == "" {
			continue
		}
		signals = append(signals, name)
	}
	return signals
}

// stringify renders a text field that may have arrived as a nested object
// (the dict-valued-text-field coercion) as a JSON string instead.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// deterministicHorizon is the fixed bypass perspective for a single
// horizon: the governor's/trading system's own decision, cited verbatim.
func deterministicHorizon(qc QuantContext, h domain.Horizon) domain.HorizonPerspective {
	action := qc.DecisionState
	confidence := 0.0
	if d, ok := qc.Decisions[h]; ok {
		action = d.DecisionState
		confidence = d.Confidence
	}
	return domain.HorizonPerspective{
		Action:     action,
		Confidence: confidence,
		Signals:    nil,
		Rationale:  fmt.Sprintf("System Veto: %s", qc.PrimaryReason),
	}
}

// deterministicAnalysis is the fixed bypass template: a null perspective per
// horizon citing the primary reason, no external call made.
func deterministicAnalysis(qc QuantContext) domain.AIAnalysis {
	horizons := make(map[domain.Horizon]domain.HorizonPerspective, len(domain.AllHorizons))
	for _, h := range domain.AllHorizons {
		horizons[h] = deterministicHorizon(qc, h)
	}

	summary := fmt.Sprintf("AUTOMATED REJECTION: %s", qc.PrimaryReason)
	if qc.DecisionState != domain.DecisionReject {
		summary = fmt.Sprintf("Deterministic summary for %s: %s", qc.Ticker, qc.PrimaryReason)
	}

	return domain.AIAnalysis{
		ExecutiveSummary: summary,
		Horizons:         horizons,
		OptionsFNO:       "NONE: data absent or trading locked",
		MarketSentiment:  50.0,
	}
}
