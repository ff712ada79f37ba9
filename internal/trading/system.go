// Package trading implements TradingSystem (spec.md §4.10): per-horizon
// composition of Governor + ScoringEngine + RiskEngine into a canonical
// TradingDecision, grounded on original_source/app/executor.py's decision
// assembly and on domain.TradingDecision.Validate() for the contract itself.
package trading

import (
	"math"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/governor"
	"github.com/sawpanic/equitycore/internal/risk"
)

const (
	baseConfidence           = 80.0
	lowConfluencePenalty     = 30.0
	lowConfluenceThreshold   = 4
	midConfluencePenalty     = 10.0
	midConfluenceThreshold   = 6
	highConfluenceBonus      = 10.0
	highConfluenceThreshold  = 8
	highVolatilityPenalty    = 10.0
	missingRatingsPenalty    = 15.0
	weakSignalThreshold      = 20.0
	waitConfidenceThreshold  = 70.0
	atrStopMultiple          = 2.0
	atrTakeProfitNear        = 2.0
	atrTakeProfitFar         = 4.0
)

// Input bundles everything System.Decide needs for a single horizon.
type Input struct {
	Horizon        domain.Horizon
	Technicals     domain.Technicals
	Signal         domain.AlgoSignal
	Context        *domain.MarketContext
	Fundamentals   domain.FundamentalData
	Ticker         string
	CurrentPrice   float64
	DaysToEarnings *int
}

// System composes the Governor veto check, the already-computed
// ScoringEngine output, and RiskEngine sizing into a TradingDecision.
type System struct {
	governor *governor.Governor
	risk     *risk.Engine
}

// New builds a System over g and r.
func New(g *governor.Governor, r *risk.Engine) *System {
	return &System{governor: g, risk: r}
}

// Decide implements spec.md §4.10's per-horizon decision tree.
func (s *System) Decide(in Input) domain.TradingDecision {
	veto := s.governor.GetVetoState(in.Technicals, in.Context, in.Fundamentals, in.Ticker)

	if veto.DataIntegrity == governor.IntegrityInvalid {
		return reject(in.Horizon, "RULE_0_DATA_INTEGRITY", []string{"RULE_0_DATA_INTEGRITY: critical indicators missing"})
	}
	if veto.IsUntradeableRegime {
		return reject(in.Horizon, "REGIME_CAPITAL_SHREDDER", []string{"REGIME_CAPITAL_SHREDDER: high volatility with no trend"})
	}
	if veto.HasViolations {
		return reject(in.Horizon, veto.Violations[0], veto.Violations)
	}

	confidence := baseConfidence
	if in.Signal.ConfluenceScore < lowConfluenceThreshold {
		confidence -= lowConfluencePenalty
	} else if in.Signal.ConfluenceScore < midConfluenceThreshold {
		confidence -= midConfluencePenalty
	} else if in.Signal.ConfluenceScore >= highConfluenceThreshold {
		confidence += highConfluenceBonus
	}
	if in.Signal.VolatilityRisk == domain.VolHigh {
		confidence -= highVolatilityPenalty
	}
	if in.Context != nil && in.Context.Consensus != domain.ConsensusNone && len(in.Context.AnalystRatings) == 0 {
		confidence -= missingRatingsPenalty
	}
	confidence = clamp(confidence, 0, 100)

	setupState := domain.SetupValid
	if veto.DataIntegrity == governor.IntegrityDegraded {
		setupState = domain.SetupDegraded
	}

	if math.Abs(in.Signal.Overall.Value) < weakSignalThreshold || confidence < waitConfidenceThreshold {
		return wait(in.Horizon, confidence, setupState, "signal strength or confidence below threshold")
	}

	return s.accept(in, confidence, setupState)
}

func (s *System) accept(in Input, confidence float64, setupState domain.SetupState) domain.TradingDecision {
	atr := 0.0
	if in.Technicals.ATR != nil {
		atr = *in.Technicals.ATR
	}
	bullish := in.Signal.Overall.Value >= 0

	var stopLoss float64
	var tpTargets []float64
	if bullish {
		stopLoss = in.CurrentPrice - atrStopMultiple*atr
		tpTargets = []float64{in.CurrentPrice + atrTakeProfitNear*atr, in.CurrentPrice + atrTakeProfitFar*atr}
	} else {
		stopLoss = in.CurrentPrice + atrStopMultiple*atr
		tpTargets = []float64{in.CurrentPrice - atrTakeProfitNear*atr, in.CurrentPrice - atrTakeProfitFar*atr}
	}

	riskPerShare := math.Abs(in.CurrentPrice - stopLoss)

	sizing := s.risk.CalculatePositionSize(setupState, in.CurrentPrice, riskPerShare, in.Technicals.VolumeAvg20d, in.DaysToEarnings)

	rewardPerShare := math.Abs(tpTargets[0] - in.CurrentPrice)
	riskReward := 0.0
	if riskPerShare > 0 {
		riskReward = rewardPerShare / riskPerShare
	}

	if riskReward < 1.0 {
		return reject(in.Horizon, "MATHEMATICALLY_INVALID", []string{"MATHEMATICALLY_INVALID: risk_reward_ratio below 1.0"})
	}

	quality := setupQuality(in.Signal.ConfluenceScore)
	takeProfit := tpTargets[0]

	return domain.TradingDecision{
		Horizon:          in.Horizon,
		DecisionState:    domain.DecisionAccept,
		SetupState:       setupState,
		Confidence:       confidence,
		PrimaryReason:    "accepted: confluence and confidence above threshold",
		ViolationRules:   nil,
		PositionSizePct:  sizing.PositionSizePct,
		MaxCapitalAtRisk: sizing.CapitalAtRiskPct,
		RiskRewardRatio:  riskReward,
		StopLoss:         &stopLoss,
		TakeProfit:       &takeProfit,
		TPTargets:        tpTargets,
		EntryZone:        &domain.PriceZone{Low: in.CurrentPrice * 0.995, High: in.CurrentPrice * 1.005},
		SetupQuality:     &quality,
	}
}

func setupQuality(confluence int) domain.SetupQuality {
	switch {
	case confluence >= highConfluenceThreshold:
		return domain.QualityHigh
	case confluence >= midConfluenceThreshold:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

func reject(h domain.Horizon, primary string, violations []string) domain.TradingDecision {
	return domain.TradingDecision{
		Horizon:        h,
		DecisionState:  domain.DecisionReject,
		SetupState:     domain.SetupInvalid,
		Confidence:     0,
		PrimaryReason:  primary,
		ViolationRules: violations,
	}
}

func wait(h domain.Horizon, confidence float64, setupState domain.SetupState, reason string) domain.TradingDecision {
	return domain.TradingDecision{
		Horizon:       h,
		DecisionState: domain.DecisionWait,
		SetupState:    setupState,
		Confidence:    confidence,
		PrimaryReason: reason,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
