package main

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/provider"
)

// sparseInfoProvider returns a junk ticker-info map (fewer than 10 keys,
// no name fields), the case provider.IsJunkInfo must catch.
type sparseInfoProvider struct{}

func (sparseInfoProvider) Name() string { return "sparse" }
func (sparseInfoProvider) FetchPriceHistory(context.Context, string, string, string) (domain.Series, error) {
	return domain.Series{}, nil
}
func (sparseInfoProvider) FetchTickerInfo(context.Context, string) (map[string]any, error) {
	return map[string]any{"forward_pe": 12.5}, nil
}

type fakeStatementProvider struct {
	income, balance map[string]any
}

func (f fakeStatementProvider) FetchIncomeStatement(context.Context, string) (map[string]any, error) {
	return f.income, nil
}
func (f fakeStatementProvider) FetchBalanceSheet(context.Context, string) (map[string]any, error) {
	return f.balance, nil
}

func newTestFetcher(t *testing.T, statements StatementProvider) chainFundamentalsFetcher {
	t.Helper()
	m := metrics.NewRegistry(prometheus.NewRegistry())
	chain := provider.NewChain([]provider.DataProvider{sparseInfoProvider{}}, m, zerolog.Nop())
	return chainFundamentalsFetcher{chain: chain, statements: statements}
}

func TestFetch_ReconstructsFromStatementsWhenInfoIsJunk(t *testing.T) {
	f := newTestFetcher(t, fakeStatementProvider{
		income:  map[string]any{"total_revenue": 1000.0, "net_income": 200.0},
		balance: map[string]any{"total_assets": 5000.0, "shares_outstanding": 100.0},
	})

	in, err := f.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, in.Raw.TotalRevenue)
	assert.Equal(t, 1000.0, *in.Raw.TotalRevenue)
	require.NotNil(t, in.Raw.NetIncome)
	assert.Equal(t, 200.0, *in.Raw.NetIncome)
	require.NotNil(t, in.Raw.TotalAssets)
	assert.Equal(t, 5000.0, *in.Raw.TotalAssets)
	require.NotNil(t, in.Raw.Shares)
	assert.Equal(t, int64(100), *in.Raw.Shares)
	// forward_pe came from the (junk) summary response and must survive.
	require.NotNil(t, in.Raw.ForwardPE)
	assert.Equal(t, 12.5, *in.Raw.ForwardPE)
}

func TestFetch_LeavesRawUnchangedWhenStatementsAlsoEmpty(t *testing.T) {
	f := newTestFetcher(t, noopStatementProvider{})

	in, err := f.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Nil(t, in.Raw.TotalRevenue)
	require.NotNil(t, in.Raw.ForwardPE)
}

func TestFetch_SkipsReconstructionWhenInfoIsNotJunk(t *testing.T) {
	m := metrics.NewRegistry(prometheus.NewRegistry())
	chain := provider.NewChain([]provider.DataProvider{&provider.MockProvider{NameStr: "mock", Seed: 50}}, m, zerolog.Nop())
	f := chainFundamentalsFetcher{chain: chain, statements: fakeStatementProvider{
		income: map[string]any{"total_revenue": 9999.0},
	}}

	in, err := f.Fetch(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Nil(t, in.Raw.TotalRevenue, "a well-formed summary response must not trigger statement reconstruction")
}
