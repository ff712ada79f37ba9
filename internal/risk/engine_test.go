package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/equitycore/internal/domain"
)

func TestCalculatePositionSize_ZeroOnNonPositiveRisk(t *testing.T) {
	e := New(DefaultParameters())
	sizing := e.CalculatePositionSize(domain.SetupValid, 100, 0, nil, nil)
	assert.Equal(t, 0.0, sizing.PositionSizePct)
}

func TestCalculatePositionSize_DegradedHalvesCap(t *testing.T) {
	e := New(DefaultParameters())
	valid := e.CalculatePositionSize(domain.SetupValid, 100, 1, nil, nil)
	degraded := e.CalculatePositionSize(domain.SetupDegraded, 100, 1, nil, nil)
	assert.Less(t, degraded.PositionSizePct, valid.PositionSizePct)
}

func TestCalculatePositionSize_LowVolumeCapsAtOnePercent(t *testing.T) {
	e := New(Parameters{MaxPositionPct: 50, MaxCapitalRiskPct: 20})
	vol := 100_000.0
	sizing := e.CalculatePositionSize(domain.SetupValid, 100, 1, &vol, nil)
	assert.LessOrEqual(t, sizing.PositionSizePct, 1.0)
}

func TestCalculatePositionSize_HighVolatilityHalvesSize(t *testing.T) {
	e := New(DefaultParameters())
	tight := e.CalculatePositionSize(domain.SetupValid, 100, 2, nil, nil)  // 2% risk, under cap
	wide := e.CalculatePositionSize(domain.SetupValid, 100, 10, nil, nil) // 10% risk, over 5% cap
	assert.Less(t, wide.PositionSizePct/10, tight.PositionSizePct/2)
}

func TestCalculatePositionSize_EarningsLockDecaysLinearly(t *testing.T) {
	e := New(DefaultParameters())
	far := 20
	near := 1
	sizingFar := e.CalculatePositionSize(domain.SetupValid, 100, 1, nil, &far)
	sizingNear := e.CalculatePositionSize(domain.SetupValid, 100, 1, nil, &near)
	assert.Greater(t, sizingFar.PositionSizePct, sizingNear.PositionSizePct)
}

func TestCalculatePositionSize_CapitalAtRiskMatchesSizeTimesStopPct(t *testing.T) {
	e := New(DefaultParameters())
	sizing := e.CalculatePositionSize(domain.SetupValid, 100, 2, nil, nil)
	assert.InDelta(t, sizing.PositionSizePct*0.02, sizing.CapitalAtRiskPct, 0.01)
}
