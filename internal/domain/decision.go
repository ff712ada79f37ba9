package domain

// DecisionState is the canonical three-way output of TradingSystem.
type DecisionState string

const (
	DecisionAccept DecisionState = "ACCEPT"
	DecisionWait   DecisionState = "WAIT"
	DecisionReject DecisionState = "REJECT"
)

// SetupState qualifies how much the underlying evidence supports the
// decision, independent of the decision itself.
type SetupState string

const (
	SetupValid    SetupState = "VALID"
	SetupDegraded SetupState = "DEGRADED"
	SetupInvalid  SetupState = "INVALID"
	SetupSkipped  SetupState = "SKIPPED"
)

// SetupQuality is only populated on ACCEPT decisions.
type SetupQuality string

const (
	QualityLow    SetupQuality = "LOW"
	QualityMedium SetupQuality = "MEDIUM"
	QualityHigh   SetupQuality = "HIGH"
)

// PriceZone is an inclusive [Low, High] price band, used for entry zones.
type PriceZone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Horizon names the four trading horizons TradingSystem evaluates.
type Horizon string

const (
	HorizonIntraday  Horizon = "intraday"
	HorizonSwing     Horizon = "swing"
	HorizonPositional Horizon = "positional"
	HorizonLongTerm  Horizon = "longterm"
)

// AllHorizons lists the horizons in evaluation order.
var AllHorizons = []Horizon{HorizonIntraday, HorizonSwing, HorizonPositional, HorizonLongTerm}

// TradingDecision is the canonical contract produced by TradingSystem for a
// single horizon (spec.md §3). Its invariants are enforced by the
// constructors in package trading, never by callers mutating fields after
// the fact.
type TradingDecision struct {
	Horizon          Horizon        `json:"horizon"`
	DecisionState    DecisionState  `json:"decision_state"`
	SetupState       SetupState     `json:"setup_state"`
	Confidence       float64        `json:"confidence"`
	PrimaryReason    string         `json:"primary_reason"`
	ViolationRules   []string       `json:"violation_rules"`
	PositionSizePct  float64        `json:"position_size_pct"`
	MaxCapitalAtRisk float64        `json:"max_capital_at_risk"`
	RiskRewardRatio  float64        `json:"risk_reward_ratio"`
	StopLoss         *float64       `json:"stop_loss"`
	TakeProfit       *float64       `json:"take_profit"`
	TPTargets        []float64      `json:"tp_targets"`
	EntryZone        *PriceZone     `json:"entry_zone"`
	SetupQuality     *SetupQuality  `json:"setup_quality"`
}

// Validate checks the cross-field invariants spec.md §3 and §8 require of
// every TradingDecision, regardless of how it was constructed. It is used
// both by package trading's constructors and by tests asserting invariant 2
// and invariant 3 hold end to end.
func (d TradingDecision) Validate() []string {
	var problems []string

	switch d.DecisionState {
	case DecisionWait, DecisionReject:
		if d.StopLoss != nil || d.TakeProfit != nil || d.EntryZone != nil || len(d.TPTargets) > 0 {
			problems = append(problems, "WAIT/REJECT must null entry/stop/tp")
		}
		if d.PositionSizePct != 0 || d.MaxCapitalAtRisk != 0 {
			problems = append(problems, "WAIT/REJECT must zero position/risk")
		}
		if d.DecisionState == DecisionReject {
			if d.Confidence != 0 {
				problems = append(problems, "REJECT must have confidence=0")
			}
			if d.SetupQuality != nil {
				problems = append(problems, "REJECT must null setup_quality")
			}
			if len(d.ViolationRules) == 0 {
				problems = append(problems, "REJECT must carry at least one violation rule")
			}
		}
	case DecisionAccept:
		if d.StopLoss == nil || len(d.TPTargets) == 0 {
			problems = append(problems, "ACCEPT must populate stop_loss and tp_targets")
		}
		if d.RiskRewardRatio < 1.0 {
			problems = append(problems, "ACCEPT must have risk_reward_ratio >= 1.0")
		}
	}
	return problems
}
