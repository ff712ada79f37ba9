package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
)

func ptr(v float64) *float64 { return &v }
func iptr(v int64) *int64    { return &v }

func TestCalculateDCF_InvalidInputs(t *testing.T) {
	result := CalculateDCF(DCFInputs{FCF: nil, Shares: iptr(100)})
	assert.Equal(t, domain.ValuationInvalidInputs, result.Status)
}

func TestCalculateDCF_TerminalValueDominantKillSwitch(t *testing.T) {
	// Low FCF, high growth pushes almost all value into the terminal
	// stage, per spec.md scenario E.
	result := CalculateDCF(DCFInputs{
		FCF:           ptr(1_000_000),
		RevenueGrowth: 0.35,
		Shares:        iptr(100_000_000),
	})
	require.NotNil(t, result.ValuePerShare)
	assert.Equal(t, domain.ValuationTerminalValueDominant, result.Status)
	assert.Greater(t, result.TerminalValueDominance, 0.85)
}

func TestCalculateDCF_ModerateGrowthStaysValid(t *testing.T) {
	result := CalculateDCF(DCFInputs{
		FCF:           ptr(500_000_000),
		RevenueGrowth: 0.06,
		Shares:        iptr(1_000_000_000),
	})
	require.NotNil(t, result.ValuePerShare)
	assert.LessOrEqual(t, result.TerminalValueDominance, 0.85)
}

func TestCalculateGraham_UndefinedForNonPositiveInputs(t *testing.T) {
	assert.Equal(t, domain.ValuationUndefined, CalculateGraham(ptr(-1), ptr(10)).Status)
	assert.Equal(t, domain.ValuationUndefined, CalculateGraham(ptr(1), nil).Status)
}

func TestCalculateGraham_ValidForPositiveInputs(t *testing.T) {
	result := CalculateGraham(ptr(5), ptr(40))
	require.Equal(t, domain.ValuationValid, result.Status)
	require.NotNil(t, result.Value)
	assert.InDelta(t, 67.08, *result.Value, 0.5)
}

func TestDeriveRaw_SignParadoxUsesNetIncomeToCommon(t *testing.T) {
	raw := domain.FundamentalData{
		NetIncomeToCommon: ptr(100),
		TotalEquity:       ptr(1000),
		TotalAssets:       ptr(5000),
	}
	derived := DeriveRaw(raw)
	require.NotNil(t, derived.ROE)
	assert.InDelta(t, 0.1, *derived.ROE, 1e-9)
	violations := derived.CheckIntegrity()
	assert.Empty(t, violations)
}

func TestDeriveRaw_NormalizesDebtToEquityPercentConvention(t *testing.T) {
	raw := domain.FundamentalData{DebtToEquity: ptr(150)}
	derived := DeriveRaw(raw)
	require.NotNil(t, derived.DebtToEquity)
	assert.InDelta(t, 1.5, *derived.DebtToEquity, 1e-9)
}

func TestSloanRatio_FlagsManipulationRisk(t *testing.T) {
	result := SloanRatio(ptr(200), ptr(50), ptr(1000))
	require.NotNil(t, result)
	assert.Equal(t, "MANIPULATION_RISK_HIGH", result.Status)
}

func TestSloanRatio_NormalWhenClose(t *testing.T) {
	result := SloanRatio(ptr(105), ptr(100), ptr(1000))
	require.NotNil(t, result)
	assert.Equal(t, "NORMAL", result.Status)
}
