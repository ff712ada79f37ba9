// Package orchestrator implements the top-level analyze() entry point
// (spec.md §4.11): parallel sensor fan-out under a global deadline,
// conflict detection, blindness cap, hard vetoes, authorization, the
// narrative gate, and final response assembly. Grounded on
// original_source/app/service.py's pipeline orchestration, re-expressed as
// goroutine fan-out with a single context deadline rather than asyncio.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appcontext "github.com/sawpanic/equitycore/internal/context"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/fundamentals"
	"github.com/sawpanic/equitycore/internal/governor"
	"github.com/sawpanic/equitycore/internal/indicator"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/narrative"
	"github.com/sawpanic/equitycore/internal/news"
	"github.com/sawpanic/equitycore/internal/scoring"
	"github.com/sawpanic/equitycore/internal/sensor"
	"github.com/sawpanic/equitycore/internal/trading"
)

const (
	globalDeadline          = 30 * time.Second
	blindnessCapConfidence  = 40.0
	missingDatumFactor      = 0.85
	conflictHalvingFactor   = 0.5
	valuationVetoADXCeiling = 20.0
	valuationVetoPriceRatio = 1.04
	authorizationMinConf    = 40.0
	responseVersion         = "1.0.0"

	signalNormalizationMethod = "Z-SCORE_CLAMPED"
	signalExpectancyWeighting = 0.25
	signalComponentWeight     = 0.25
	valuationUpsideScale      = 0.5
	hardVetoSignalStrength    = -1.0
)

var intervals = []string{"5m", "60m", "1d", "1wk"}

// intervalHorizon maps each computed interval to the horizon it informs.
var intervalHorizon = map[string]domain.Horizon{
	"5m":  domain.HorizonIntraday,
	"60m": domain.HorizonSwing,
	"1d":  domain.HorizonPositional,
	"1wk": domain.HorizonLongTerm,
}

// Mode selects how much of the pipeline analyze() runs.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeIntraday  Mode = "intraday"
	ModeExecution Mode = "execution"
)

// Orchestrator wires every component into the single analyze() operation.
type Orchestrator struct {
	marketSensor  *sensor.MarketDataSensor
	contextSensor *appcontext.Sensor
	newsAgg       *news.Aggregator
	governor      *governor.Governor
	tradingSys    *trading.System
	synthesizer   *narrative.Synthesizer
	metrics       *metrics.Registry
	log           zerolog.Logger
	now           func() time.Time
}

// New wires the full dependency graph.
func New(
	marketSensor *sensor.MarketDataSensor,
	contextSensor *appcontext.Sensor,
	newsAgg *news.Aggregator,
	gov *governor.Governor,
	tradingSys *trading.System,
	synthesizer *narrative.Synthesizer,
	m *metrics.Registry,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		marketSensor:  marketSensor,
		contextSensor: contextSensor,
		newsAgg:       newsAgg,
		governor:      gov,
		tradingSys:    tradingSys,
		synthesizer:   synthesizer,
		metrics:       m,
		log:           log.With().Str("component", "orchestrator").Logger(),
		now:           time.Now,
	}
}

// FundamentalsFetcher is the out-of-scope capability supplying raw
// fundamentals records; analyze() only orchestrates, it doesn't fetch.
type FundamentalsFetcher interface {
	Fetch(ctx context.Context, ticker string) (fundamentals.Inputs, error)
}

// Request is the input to Analyze.
type Request struct {
	Ticker  string
	Mode    Mode
	ForceAI bool
}

// Analyze runs the full pipeline (spec.md §4.11) and assembles a Response.
func (o *Orchestrator) Analyze(ctx context.Context, req Request, fundamentalsFetcher FundamentalsFetcher) domain.Response {
	start := o.now()
	ctx, cancel := context.WithTimeout(ctx, globalDeadline)
	defer cancel()
	defer func() {
		o.metrics.RequestLatency.Observe(time.Since(start).Seconds())
	}()

	fan := o.fanOut(ctx, req, fundamentalsFetcher)

	decisions := make(map[domain.Horizon]domain.TradingDecision, len(domain.AllHorizons))
	signals := make(map[domain.Horizon]domain.AlgoSignal, len(domain.AllHorizons))
	var currentPrice float64
	var latestTechnicals domain.Technicals

	for _, interval := range intervals {
		series, ok := fan.series[interval]
		if !ok {
			continue
		}
		tech := indicator.Compute(series)
		signal := scoring.Score(tech)
		horizon := intervalHorizon[interval]
		signals[horizon] = signal
		latestTechnicals = tech
		if last, ok := series.Last(); ok {
			currentPrice = last.Close
		}

		var raw domain.FundamentalData
		var daysToEarnings *int
		if fan.fundamentals != nil {
			raw = fan.fundamentals.Raw
		}
		if fan.marketContext != nil {
			daysToEarnings = fan.marketContext.DaysToEarnings(o.now())
		}

		decisions[horizon] = o.tradingSys.Decide(trading.Input{
			Horizon:        horizon,
			Technicals:     tech,
			Signal:         signal,
			Context:        fan.marketContext,
			Fundamentals:   raw,
			Ticker:         req.Ticker,
			CurrentPrice:   currentPrice,
			DaysToEarnings: daysToEarnings,
		})
	}

	integrity := o.governor.AssessDataIntegrity(latestTechnicals, fan.marketContext, req.Ticker)
	confidence, missingData := aggregateConfidence(decisions, integrity, fan)

	hardVetoes := detectHardVetoes(latestTechnicals, fan.marketContext, currentPrice)
	authorized := confidence >= authorizationMinConf && integrity == governor.IntegrityValid && len(hardVetoes) == 0

	globalState, primaryReason := globalDecisionState(decisions, hardVetoes)

	elapsed := time.Since(start).Seconds()
	bypass := narrative.ShouldBypass(confidence/100, hasConflict(decisions), elapsed, string(req.Mode), req.ForceAI)

	var aiAnalysis *domain.AIAnalysis
	if o.synthesizer != nil {
		qc := narrative.QuantContext{
			Ticker:        req.Ticker,
			CurrentPrice:  currentPrice,
			Decisions:     decisions,
			Signals:       signals,
			Fundamentals:  fan.fundamentals,
			NewsDigest:    fan.news,
			MarketCtx:     fan.marketContext,
			Confidence:    confidence,
			DecisionState: globalState,
			PrimaryReason: primaryReason,
		}
		analysis := o.synthesizer.Synthesize(ctx, qc, bypass)
		analysis = applyAuthorityLayer(analysis, authorized, globalState, confidence)
		aiAnalysis = &analysis
	}

	return o.assembleResponse(req, assemblyInput{
		decisions:    decisions,
		signals:      signals,
		technicals:   latestTechnicals,
		currentPrice: currentPrice,
		confidence:   confidence,
		integrity:    integrity,
		authorized:   authorized,
		hardVetoes:   hardVetoes,
		globalState:  globalState,
		missingData:  missingData,
		aiAnalysis:   aiAnalysis,
		marketCtx:    fan.marketContext,
		fundamentals: fan.fundamentals,
		start:        start,
		engineLogic:  engineLogicFor(aiAnalysis, bypass),
	})
}

type fanOutResult struct {
	series        map[string]domain.Series
	marketContext *domain.MarketContext
	fundamentals  *domain.FundamentalsResult
	news          *domain.NewsDigest
	errors        []string
}

// fanOut parallel-fetches every sensor branch, tolerating individual
// failures (spec.md §4.11 step 1): a failed branch is recorded in errors and
// never aborts the request. A failure does not lower data integrity; a
// missing context, fundamentals or news result only decays confidence in
// aggregateConfidence, and a failed interval yields no decision for its
// horizon.
func (o *Orchestrator) fanOut(ctx context.Context, req Request, fundamentalsFetcher FundamentalsFetcher) fanOutResult {
	var mu sync.Mutex
	result := fanOutResult{series: make(map[string]domain.Series)}
	var wg sync.WaitGroup

	for _, interval := range intervals {
		wg.Add(1)
		go func(interval string) {
			defer wg.Done()
			series, err := o.marketSensor.Fetch(ctx, req.Ticker, interval)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.errors = append(result.errors, fmt.Sprintf("market_data[%s]: %v", interval, err))
				return
			}
			result.series[interval] = series
		}(interval)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		mc, err := o.contextSensor.Fetch(ctx, req.Ticker)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.errors = append(result.errors, fmt.Sprintf("context: %v", err))
			return
		}
		result.marketContext = &mc
	}()

	if req.Mode != ModeIntraday && req.Mode != ModeExecution && fundamentalsFetcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in, err := fundamentalsFetcher.Fetch(ctx, req.Ticker)
			if err != nil {
				mu.Lock()
				result.errors = append(result.errors, fmt.Sprintf("fundamentals: %v", err))
				mu.Unlock()
				return
			}
			fr := fundamentals.Run(in)
			mu.Lock()
			result.fundamentals = &fr
			mu.Unlock()
		}()
	}

	if o.newsAgg != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			digest := o.newsAgg.Fetch(ctx, req.Ticker)
			mu.Lock()
			result.news = &digest
			mu.Unlock()
		}()
	}

	wg.Wait()
	return result
}

// aggregateConfidence implements spec.md §4.11 steps 2-3: conflict
// detection halves confidence, then the blindness cap applies when
// integrity is DEGRADED, with an additional decay per missing critical
// datum.
func aggregateConfidence(decisions map[domain.Horizon]domain.TradingDecision, integrity governor.DataIntegrity, fan fanOutResult) (float64, int) {
	confidence := highestConfidence(decisions)

	if hasConflict(decisions) {
		confidence *= conflictHalvingFactor
	}

	missing := 0
	if fan.marketContext == nil {
		missing++
	}
	if fan.fundamentals == nil {
		missing++
	}
	if fan.news == nil {
		missing++
	}
	for i := 0; i < missing; i++ {
		confidence *= missingDatumFactor
	}

	if integrity == governor.IntegrityDegraded {
		confidence = math.Min(confidence, blindnessCapConfidence)
	}

	return confidence, missing
}

func highestConfidence(decisions map[domain.Horizon]domain.TradingDecision) float64 {
	best := 0.0
	for _, d := range decisions {
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best
}

// hasConflict reports directional disagreement across the three shorter
// horizons (spec.md §4.11 step 2).
func hasConflict(decisions map[domain.Horizon]domain.TradingDecision) bool {
	watched := []domain.Horizon{domain.HorizonIntraday, domain.HorizonSwing, domain.HorizonPositional}
	seen := map[domain.DecisionState]bool{}
	for _, h := range watched {
		if d, ok := decisions[h]; ok {
			seen[d.DecisionState] = true
		}
	}
	return seen[domain.DecisionAccept] && (seen[domain.DecisionReject])
}

// detectHardVetoes implements spec.md §4.11 step 4: a regime/valuation
// conflict where price has run well past analyst fair value with no trend.
func detectHardVetoes(t domain.Technicals, mc *domain.MarketContext, currentPrice float64) []string {
	var vetoes []string
	if t.ADX != nil && *t.ADX < valuationVetoADXCeiling && mc != nil && mc.PriceTargetMean != nil {
		if currentPrice > valuationVetoPriceRatio*(*mc.PriceTargetMean) {
			vetoes = append(vetoes, "REGIME_VALUATION_CONFLICT")
		}
	}
	return vetoes
}

func globalDecisionState(decisions map[domain.Horizon]domain.TradingDecision, hardVetoes []string) (domain.DecisionState, string) {
	if len(hardVetoes) > 0 {
		return domain.DecisionReject, hardVetoes[0]
	}
	for _, h := range domain.AllHorizons {
		if d, ok := decisions[h]; ok && d.DecisionState == domain.DecisionAccept {
			return domain.DecisionAccept, d.PrimaryReason
		}
	}
	for _, h := range domain.AllHorizons {
		if d, ok := decisions[h]; ok && d.DecisionState == domain.DecisionWait {
			return domain.DecisionWait, d.PrimaryReason
		}
	}
	for _, h := range domain.AllHorizons {
		if d, ok := decisions[h]; ok {
			return domain.DecisionReject, d.PrimaryReason
		}
	}
	return domain.DecisionReject, "no data"
}

func engineLogicFor(aiAnalysis *domain.AIAnalysis, bypass bool) domain.EngineLogic {
	if aiAnalysis == nil || bypass {
		return domain.EngineDeterministic
	}
	return domain.EngineHybrid
}

// applyAuthorityLayer implements spec.md §4.11 step 7: every narrated
// horizon's action must match the global decision, its confidence is
// clamped to the global confidence, and when the request isn't authorized
// its price levels are nulled and null-indicator signals are dropped.
func applyAuthorityLayer(analysis domain.AIAnalysis, authorized bool, globalState domain.DecisionState, globalConfidence float64) domain.AIAnalysis {
	for h, persp := range analysis.Horizons {
		persp.Action = globalState
		if persp.Confidence > globalConfidence {
			persp.Confidence = globalConfidence
		}
		if !authorized {
			persp.EntryZone = nil
			persp.Target = nil
			persp.Stop = nil
		}
		analysis.Horizons[h] = persp
	}
	return analysis
}

type assemblyInput struct {
	decisions    map[domain.Horizon]domain.TradingDecision
	signals      map[domain.Horizon]domain.AlgoSignal
	technicals   domain.Technicals
	currentPrice float64
	confidence   float64
	integrity    governor.DataIntegrity
	authorized   bool
	hardVetoes   []string
	globalState  domain.DecisionState
	missingData  int
	aiAnalysis   *domain.AIAnalysis
	marketCtx    *domain.MarketContext
	fundamentals *domain.FundamentalsResult
	start        time.Time
	engineLogic  domain.EngineLogic
}

// assembleResponse implements spec.md §4.11 step 8.
func (o *Orchestrator) assembleResponse(req Request, in assemblyInput) domain.Response {
	latencyMs := time.Since(in.start).Milliseconds()

	dataQuality := "GOOD"
	if in.integrity == governor.IntegrityDegraded {
		dataQuality = "DEGRADED"
	} else if in.integrity == governor.IntegrityInvalid {
		dataQuality = "INVALID"
	}

	taxonomy := map[string]string{}
	if in.marketCtx == nil {
		taxonomy["market_context"] = "fetch_failed_or_skipped"
	}

	swingSignal := in.signals[domain.HorizonSwing]

	var support, resistance []float64
	if in.technicals.SupportS1 != nil {
		support = append(support, *in.technicals.SupportS1)
	}
	if in.technicals.SupportS2 != nil {
		support = append(support, *in.technicals.SupportS2)
	}
	if in.technicals.ResistanceR1 != nil {
		resistance = append(resistance, *in.technicals.ResistanceR1)
	}
	if in.technicals.ResistanceR2 != nil {
		resistance = append(resistance, *in.technicals.ResistanceR2)
	}

	var valueZones []domain.PriceZone
	if d, ok := in.decisions[domain.HorizonSwing]; ok && d.EntryZone != nil {
		valueZones = append(valueZones, *d.EntryZone)
	}

	atrPct := 0.0
	if in.technicals.ATRPercent != nil {
		atrPct = *in.technicals.ATRPercent
	}
	adx := 0.0
	if in.technicals.ADX != nil {
		adx = *in.technicals.ADX
	}
	volRatio := 0.0
	if in.technicals.VolumeRatio != nil {
		volRatio = *in.technicals.VolumeRatio
	}

	resp := domain.Response{
		Meta: domain.Meta{
			Ticker:     req.Ticker,
			Timestamp:  o.now(),
			Version:    responseVersion,
			AnalysisID: uuid.NewString(),
		},
		Execution: domain.Execution{
			Action:     in.globalState,
			Authorized: in.authorized,
			Urgency:    urgencyFor(in.globalState, in.confidence),
			ValidUntil: o.now().Add(5 * time.Minute),
			RiskLimits: riskLimitsFor(in.decisions),
			Vetoes:     in.hardVetoes,
		},
		Signals: signalsFor(swingSignal, in.fundamentals, in.currentPrice, in.hardVetoes, in.globalState),
		Levels: domain.Levels{
			Current:    in.currentPrice,
			Timestamp:  o.now(),
			Support:    support,
			Resistance: resistance,
			ValueZones: valueZones,
		},
		Context: domain.Context{
			Regime:           string(swingSignal.Regime),
			RegimeConfidence: in.confidence,
			TrendStrengthADX: adx,
			VolatilityATRPct: atrPct,
			VolumeRatio:      volRatio,
		},
		HumanInsight: domain.HumanInsight{
			Summary:          humanSummary(in.globalState, in.confidence),
			KeyConflicts:     conflictDescriptions(in.decisions),
			MonitorTriggers:  nil,
			ProbabilityBasis: fmt.Sprintf("p_win=%.2f", swingSignal.PWin),
		},
		System: domain.System{
			Confidence:         in.confidence,
			DataQuality:        dataQuality,
			BlockingIssues:     in.hardVetoes,
			DataStateTaxonomy:  taxonomy,
			LatencyMs:          latencyMs,
			LayerTimings:       domain.LayerTimings{},
			NextUpdate:         o.now().Add(5 * time.Minute),
			LatencySLAViolated: latencyMs > globalDeadline.Milliseconds(),
			SLAThresholdMs:     globalDeadline.Milliseconds(),
			FallbackUsed:       in.missingData > 0,
			EngineLogic:        in.engineLogic,
		},
		MarketContext: in.marketCtx,
		AIAnalysis:    in.aiAnalysis,
	}

	return resp
}

// signalsFor implements the signals{} block of the Response contract
// (spec.md §6): each component is clamped-linear-normalized into [-1,1]
// from its own ScoreDetail range (the "Z-SCORE_CLAMPED" method), then
// primary_signal_strength is their equal-weighted sum — expectancy carries
// the spec-fixed 0.25 weight and the remaining three components split the
// other 0.75 evenly, so all four weights come out equal. A hard veto
// overrides the computed sum with exactly -1.0 (spec.md §8.5).
func signalsFor(s domain.AlgoSignal, fund *domain.FundamentalsResult, currentPrice float64, hardVetoes []string, globalState domain.DecisionState) domain.Signals {
	trend := normalizeClamped(s.Trend.Value, s.Trend.Min, s.Trend.Max)
	momentum := normalizeClamped(s.Momentum.Value, s.Momentum.Min, s.Momentum.Max)
	expectancy := normalizeClamped(s.PWin, 0.1, 0.9)
	valuation := valuationComponent(fund, currentPrice)

	components := domain.SignalComponents{
		Trend:      trend,
		Momentum:   momentum,
		Expectancy: expectancy,
		Valuation:  valuation,
	}

	strength := signalComponentWeight*trend + signalComponentWeight*momentum +
		signalExpectancyWeighting*expectancy + signalComponentWeight*valuation
	if len(hardVetoes) > 0 {
		strength = hardVetoSignalStrength
	}

	return domain.Signals{
		Actionable:            globalState == domain.DecisionAccept,
		PrimarySignalStrength: strength,
		RequiredStrength:      20,
		Components:            components,
		NormalizationMethod:   signalNormalizationMethod,
		ExpectancyWeighting:   signalExpectancyWeighting,
	}
}

// normalizeClamped linearly maps [min,max] onto [-1,1] and clamps the
// result, the "Z-SCORE_CLAMPED" normalization spec.md §6 names.
func normalizeClamped(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	normalized := 2*(value-min)/(max-min) - 1
	return clampSignal(normalized, -1, 1)
}

func clampSignal(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// valuationComponent derives the signals.components.valuation reading from
// the DCF model's implied upside when available, falling back to the
// pass-B qualitative valuation label otherwise.
func valuationComponent(fund *domain.FundamentalsResult, currentPrice float64) float64 {
	if fund == nil {
		return 0
	}
	if fund.DCF.Status == domain.ValuationValid && fund.DCF.ValuePerShare != nil && currentPrice > 0 {
		upside := (*fund.DCF.ValuePerShare - currentPrice) / currentPrice
		return clampSignal(upside/valuationUpsideScale, -1, 1)
	}
	switch fund.Inferences.Valuation {
	case "UNDERVALUED":
		return 1
	case "OVERVALUED":
		return -1
	default:
		return 0
	}
}

func urgencyFor(state domain.DecisionState, confidence float64) domain.Urgency {
	switch {
	case state != domain.DecisionAccept:
		return domain.UrgencyLow
	case confidence >= 85:
		return domain.UrgencyImmediate
	case confidence >= 70:
		return domain.UrgencyHigh
	default:
		return domain.UrgencyMedium
	}
}

func riskLimitsFor(decisions map[domain.Horizon]domain.TradingDecision) domain.RiskLimits {
	if d, ok := decisions[domain.HorizonSwing]; ok {
		return domain.RiskLimits{MaxPositionPct: d.PositionSizePct, MaxCapitalAtRisk: d.MaxCapitalAtRisk}
	}
	return domain.RiskLimits{}
}

func humanSummary(state domain.DecisionState, confidence float64) string {
	return fmt.Sprintf("%s at %.0f%% confidence", state, confidence)
}

func conflictDescriptions(decisions map[domain.Horizon]domain.TradingDecision) []string {
	if !hasConflict(decisions) {
		return nil
	}
	return []string{"directional disagreement across horizons"}
}
