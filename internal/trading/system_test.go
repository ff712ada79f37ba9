package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/governor"
	"github.com/sawpanic/equitycore/internal/risk"
)

func f(v float64) *float64 { return &v }

func newSystem() *System {
	return New(governor.New(), risk.New(risk.DefaultParameters()))
}

func strongSignal(overall float64, confluence int) domain.AlgoSignal {
	return domain.AlgoSignal{
		Overall:         domain.ScoreDetail{Value: overall},
		ConfluenceScore: confluence,
		VolatilityRisk:  domain.VolModerate,
	}
}

func validTechnicals() domain.Technicals {
	return domain.Technicals{
		RSI:           f(55),
		MACDHistogram: f(0.2),
		ADX:           f(30),
		ATR:           f(2),
		ATRPercent:    f(2.0),
		CCI:           f(10),
		VolumeRatio:   f(1.1),
		VolumeAvg20d:  f(1_000_000),
	}
}

func TestDecide_RejectsOnDataIntegrityInvalid(t *testing.T) {
	s := newSystem()
	decision := s.Decide(Input{Horizon: domain.HorizonSwing, Technicals: domain.Technicals{}, CurrentPrice: 100})
	assert.Equal(t, domain.DecisionReject, decision.DecisionState)
	assert.Contains(t, decision.ViolationRules[0], "RULE_0_DATA_INTEGRITY")
	assert.Empty(t, decision.Validate())
}

func TestDecide_RejectsOnCapitalShredderRegime(t *testing.T) {
	s := newSystem()
	tech := validTechnicals()
	atrPct := 5.0
	adx := 10.0
	tech.ATRPercent = &atrPct
	tech.ADX = &adx
	decision := s.Decide(Input{Horizon: domain.HorizonSwing, Technicals: tech, CurrentPrice: 100, Signal: strongSignal(50, 8)})
	assert.Equal(t, domain.DecisionReject, decision.DecisionState)
	assert.Empty(t, decision.Validate())
}

func TestDecide_WaitsOnWeakSignal(t *testing.T) {
	s := newSystem()
	decision := s.Decide(Input{Horizon: domain.HorizonSwing, Technicals: validTechnicals(), CurrentPrice: 100, Signal: strongSignal(5, 8)})
	assert.Equal(t, domain.DecisionWait, decision.DecisionState)
	assert.Empty(t, decision.Validate())
}

func TestDecide_AcceptsOnStrongConfidentSignal(t *testing.T) {
	s := newSystem()
	decision := s.Decide(Input{Horizon: domain.HorizonSwing, Technicals: validTechnicals(), CurrentPrice: 100, Signal: strongSignal(60, 9)})
	require.Equal(t, domain.DecisionAccept, decision.DecisionState)
	assert.GreaterOrEqual(t, decision.RiskRewardRatio, 1.0)
	assert.NotNil(t, decision.StopLoss)
	assert.NotEmpty(t, decision.TPTargets)
	assert.Empty(t, decision.Validate())
}

func TestDecide_AllOutputsSatisfyValidate(t *testing.T) {
	s := newSystem()
	cases := []Input{
		{Horizon: domain.HorizonIntraday, Technicals: domain.Technicals{}, CurrentPrice: 50},
		{Horizon: domain.HorizonSwing, Technicals: validTechnicals(), CurrentPrice: 100, Signal: strongSignal(5, 2)},
		{Horizon: domain.HorizonPositional, Technicals: validTechnicals(), CurrentPrice: 100, Signal: strongSignal(-60, 9)},
	}
	for _, in := range cases {
		decision := s.Decide(in)
		assert.Empty(t, decision.Validate(), "decision for %s should satisfy invariants", in.Horizon)
	}
}
