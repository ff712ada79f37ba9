// Package risk implements RiskEngine (spec.md §4.9): position sizing with
// liquidity, volatility, and earnings-lock adjustments, grounded on
// original_source/app/risk.py's RiskEngine.calculate_position_size.
package risk

import (
	"math"
	"time"

	"github.com/sawpanic/equitycore/internal/domain"
)

const (
	defaultMaxPositionPct   = 10.0
	defaultMaxCapitalRiskPct = 1.0
	degradedPositionCap     = 0.5
	liquidityBaselineShares = 500_000.0
	lowVolumeShares         = 200_000.0
	volatilityCapThreshold  = 0.05
	volatilityCapFactor     = 0.5
	earningsLockWindowDays  = 21
)

// Parameters carries the tunables spec.md §4.9 names, with the teacher's
// defaults when a caller doesn't override them.
type Parameters struct {
	MaxPositionPct    float64
	MaxCapitalRiskPct float64
}

// DefaultParameters returns the spec's default risk limits.
func DefaultParameters() Parameters {
	return Parameters{MaxPositionPct: defaultMaxPositionPct, MaxCapitalRiskPct: defaultMaxCapitalRiskPct}
}

// Engine sizes positions against price, per-share risk, liquidity, and
// earnings timing.
type Engine struct {
	params Parameters
	now    func() time.Time
}

// New builds an Engine with params, defaulting to DefaultParameters when the
// zero value is passed.
func New(params Parameters) *Engine {
	if params.MaxPositionPct == 0 {
		params = DefaultParameters()
	}
	return &Engine{params: params, now: time.Now}
}

// Sizing is the output of CalculatePositionSize: both the sized position and
// the capital actually put at risk by that position.
type Sizing struct {
	PositionSizePct  float64
	CapitalAtRiskPct float64
}

// CalculatePositionSize implements the four-stage adjustment chain from
// spec.md §4.9: risk-based base size, dynamic liquidity scaling, a hard
// volatility cap, and an earnings lock that decays size to zero as the
// report date approaches.
func (e *Engine) CalculatePositionSize(setupState domain.SetupState, price, riskPerShare float64, avgVolume20d *float64, daysToEarnings *int) Sizing {
	if riskPerShare <= 0 || price <= 0 {
		return Sizing{}
	}

	maxPosition := e.params.MaxPositionPct
	if setupState == domain.SetupDegraded {
		maxPosition *= degradedPositionCap
	}

	slPct := riskPerShare / price
	positionByRisk := e.params.MaxCapitalRiskPct / slPct
	size := min(maxPosition, positionByRisk)

	if avgVolume20d != nil {
		liquidityFactor := min(1.0, *avgVolume20d/liquidityBaselineShares)
		size *= liquidityFactor
		if *avgVolume20d < lowVolumeShares {
			size = min(size, 1.0)
		}
	}

	if slPct > volatilityCapThreshold {
		size *= volatilityCapFactor
	}

	if daysToEarnings != nil && *daysToEarnings >= 0 && *daysToEarnings <= earningsLockWindowDays {
		size *= float64(*daysToEarnings) / float64(earningsLockWindowDays)
	}

	if size < 0 {
		size = 0
	}

	return Sizing{
		PositionSizePct:  round4(size),
		CapitalAtRiskPct: round4(size * slPct),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
