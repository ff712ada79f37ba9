package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sawpanic/equitycore/internal/cache"
	appcontext "github.com/sawpanic/equitycore/internal/context"
	"github.com/sawpanic/equitycore/internal/domain"
	"github.com/sawpanic/equitycore/internal/fundamentals"
	"github.com/sawpanic/equitycore/internal/governor"
	"github.com/sawpanic/equitycore/internal/httpapi"
	"github.com/sawpanic/equitycore/internal/metrics"
	"github.com/sawpanic/equitycore/internal/narrative"
	"github.com/sawpanic/equitycore/internal/news"
	"github.com/sawpanic/equitycore/internal/orchestrator"
	"github.com/sawpanic/equitycore/internal/persistence"
	"github.com/sawpanic/equitycore/internal/provider"
	"github.com/sawpanic/equitycore/internal/ratelimit"
	"github.com/sawpanic/equitycore/internal/risk"
	"github.com/sawpanic/equitycore/internal/scheduler"
	"github.com/sawpanic/equitycore/internal/sensor"
	"github.com/sawpanic/equitycore/internal/trading"
)

// AppContext is the single dependency graph every subcommand runs against,
// built once in main() the way the teacher's cmd/cryptorun wires one
// application.Services struct behind every cobra RunE.
type AppContext struct {
	Log          zerolog.Logger
	PromRegistry *prometheus.Registry
	Metrics      *metrics.Registry
	Cache        cache.Cache
	Chain        *provider.Chain

	MarketSensor  *sensor.MarketDataSensor
	ContextSensor *appcontext.Sensor
	NewsAgg       *news.Aggregator
	Fundamentals  orchestrator.FundamentalsFetcher
	Orchestrator  *orchestrator.Orchestrator

	Limiter   *ratelimit.IPLimiter
	Scheduler *scheduler.Scheduler
	Journal   *persistence.Journal

	apiKey string
}

// noopContextProvider stands in for the out-of-scope vendor feed behind
// ContextSensor (analyst ratings, insider trades, options sentiment,
// earnings), the same way provider.MockProvider stands in for a price
// vendor: every call succeeds with an empty result rather than failing the
// pipeline.
type noopContextProvider struct{}

func (noopContextProvider) FetchAnalystRatings(context.Context, string) ([]domain.AnalystRating, error) {
	return nil, nil
}
func (noopContextProvider) FetchInsiderActivity(context.Context, string) ([]domain.InsiderTrade, error) {
	return nil, nil
}
func (noopContextProvider) FetchOptionSentiment(context.Context, string) (*domain.OptionSentiment, error) {
	return nil, nil
}
func (noopContextProvider) FetchNextEarnings(context.Context, string) (*domain.EarningsEvent, error) {
	return nil, nil
}

// noopNewsSource backs the two sources wired into news.New (spec.md §4.7
// mandates fan-out to at least two feeds); both are no-ops
// until a real vendor client is wired in, matching noopContextProvider's
// stance on out-of-scope data vendors.
type noopNewsSource struct{ name string }

func (s noopNewsSource) Name() string { return s.name }
func (noopNewsSource) FetchHeadlines(context.Context, string) ([]domain.NewsItem, error) {
	return nil, nil
}

// StatementProvider is the out-of-scope capability that reconstructs a
// FundamentalData record from raw income/balance statement line items when
// the vendor's summary ticker-info response is too sparse to trust
// (provider.IsJunkInfo, spec.md §4.1). A no-op by default, the same stance
// noopContextProvider/noopNewsSource take on their vendor feeds, until a
// real statements client is wired into the chain.
type StatementProvider interface {
	FetchIncomeStatement(ctx context.Context, ticker string) (map[string]any, error)
	FetchBalanceSheet(ctx context.Context, ticker string) (map[string]any, error)
}

type noopStatementProvider struct{}

func (noopStatementProvider) FetchIncomeStatement(context.Context, string) (map[string]any, error) {
	return nil, nil
}
func (noopStatementProvider) FetchBalanceSheet(context.Context, string) (map[string]any, error) {
	return nil, nil
}

// chainFundamentalsFetcher adapts the price-history provider chain's
// ticker-info map into fundamentals.Inputs, extracting whatever numeric
// fields a vendor happened to populate. It is a best-effort bridge, not a
// vendor client: provider.MockProvider never populates these keys, so this
// fetcher only does useful work once a real DataProvider (and, for junk
// info maps, a real StatementProvider) is wired into the chain.
type chainFundamentalsFetcher struct {
	chain      *provider.Chain
	statements StatementProvider
}

func (f chainFundamentalsFetcher) Fetch(ctx context.Context, ticker string) (fundamentals.Inputs, error) {
	info, _, err := f.chain.FetchTickerInfo(ctx, ticker)
	if err != nil {
		return fundamentals.Inputs{}, err
	}
	raw := rawFromInfo(info)
	if provider.IsJunkInfo(info) {
		raw = f.reconstructFromStatements(ctx, ticker, raw)
	}
	return fundamentals.Inputs{Raw: raw}, nil
}

// reconstructFromStatements fills whatever fields the junk summary response
// left empty from the income and balance statements (spec.md §4.1), never
// overwriting a field the summary response already populated.
func (f chainFundamentalsFetcher) reconstructFromStatements(ctx context.Context, ticker string, raw domain.FundamentalData) domain.FundamentalData {
	income, err := f.statements.FetchIncomeStatement(ctx, ticker)
	if err != nil {
		income = nil
	}
	balance, err := f.statements.FetchBalanceSheet(ctx, ticker)
	if err != nil {
		balance = nil
	}
	if len(income) == 0 && len(balance) == 0 {
		return raw
	}
	return mergeMissingFundamentals(raw, rawFromStatements(income, balance))
}

func rawFromInfo(info map[string]any) domain.FundamentalData {
	return domain.FundamentalData{
		ForwardPE: floatPtr(info, "forward_pe"),
		EPS:       floatPtr(info, "eps"),
		BVPS:      floatPtr(info, "bvps"),
		Price:     floatPtr(info, "price"),
	}
}

// rawFromStatements extracts the classic income/balance-statement line
// items a junk ticker-info map can be reconstructed from.
func rawFromStatements(income, balance map[string]any) domain.FundamentalData {
	return domain.FundamentalData{
		TotalRevenue:      floatPtr(income, "total_revenue"),
		NetIncome:         floatPtr(income, "net_income"),
		NetIncomeToCommon: floatPtr(income, "net_income_to_common"),
		EPS:               floatPtr(income, "eps"),
		TotalAssets:       floatPtr(balance, "total_assets"),
		TotalEquity:       floatPtr(balance, "total_equity"),
		TotalCash:         floatPtr(balance, "total_cash"),
		TotalDebt:         floatPtr(balance, "total_debt"),
		Shares:            int64Ptr(balance, "shares_outstanding"),
	}
}

// mergeMissingFundamentals fills every nil field of dst from src without
// overwriting anything dst already had.
func mergeMissingFundamentals(dst, src domain.FundamentalData) domain.FundamentalData {
	if dst.EPS == nil {
		dst.EPS = src.EPS
	}
	if dst.TotalRevenue == nil {
		dst.TotalRevenue = src.TotalRevenue
	}
	if dst.NetIncome == nil {
		dst.NetIncome = src.NetIncome
	}
	if dst.NetIncomeToCommon == nil {
		dst.NetIncomeToCommon = src.NetIncomeToCommon
	}
	if dst.TotalAssets == nil {
		dst.TotalAssets = src.TotalAssets
	}
	if dst.TotalEquity == nil {
		dst.TotalEquity = src.TotalEquity
	}
	if dst.TotalCash == nil {
		dst.TotalCash = src.TotalCash
	}
	if dst.TotalDebt == nil {
		dst.TotalDebt = src.TotalDebt
	}
	if dst.Shares == nil {
		dst.Shares = src.Shares
	}
	return dst
}

func floatPtr(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func int64Ptr(m map[string]any, key string) *int64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	i := int64(f)
	return &i
}

// NewAppContext wires every component per SPEC_FULL.md, mirroring the
// failover-chain-over-circuit-breakers shape of the teacher's own bootstrap
// while substituting deterministic/no-op stand-ins for the vendor clients
// spec.md §1 puts out of scope.
func NewAppContext(cfg AppConfig, log zerolog.Logger) *AppContext {
	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)

	redisClient := newRedisClient(cfg.RedisURL)
	c := cache.NewRedisCache(redisClient, cfg.CacheVersion, log)

	chain := provider.NewChain([]provider.DataProvider{
		&provider.MockProvider{NameStr: "mock-primary", Seed: 100},
	}, m, log)

	marketSensor := sensor.NewMarketDataSensor(chain, c, cfg.MarketDataCacheTTL, m, log)
	contextSensor := appcontext.New(noopContextProvider{}, c, cfg.ContextCacheTTL, m, log)
	newsAgg := news.New(noopNewsSource{name: "wire-a"}, noopNewsSource{name: "wire-b"})
	gov := governor.New()
	tradingSys := trading.New(gov, risk.New(risk.DefaultParameters()))
	synth := narrative.New(nil, m)
	orch := orchestrator.New(marketSensor, contextSensor, newsAgg, gov, tradingSys, synth, m, log)

	limiter := ratelimit.New(cfg.RateLimitPerMinute)
	sched := scheduler.New(scheduler.DefaultConfig(), c, limiter, log)

	var journal *persistence.Journal
	if cfg.JournalPath != "" {
		j, err := persistence.Open(cfg.JournalPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.JournalPath).Msg("decision journal disabled: open failed")
		} else {
			journal = j
		}
	}

	return &AppContext{
		Log:           log,
		PromRegistry:  reg,
		Metrics:       m,
		Cache:         c,
		Chain:         chain,
		MarketSensor:  marketSensor,
		ContextSensor: contextSensor,
		NewsAgg:       newsAgg,
		Fundamentals:  chainFundamentalsFetcher{chain: chain, statements: noopStatementProvider{}},
		Orchestrator:  orch,
		Limiter:       limiter,
		Scheduler:     sched,
		Journal:       journal,
		apiKey:        cfg.APIKey,
	}
}

// Close releases every held resource in reverse wiring order.
func (a *AppContext) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Journal != nil {
		a.Journal.Close()
	}
	if a.Cache != nil {
		a.Cache.Close()
	}
}

// HTTPDeps adapts the AppContext into httpapi.Deps.
func (a *AppContext) HTTPDeps() httpapi.Deps {
	return httpapi.Deps{
		Orchestrator:        a.Orchestrator,
		MarketSensor:        a.MarketSensor,
		ContextSensor:       a.ContextSensor,
		NewsAggregator:      a.NewsAgg,
		FundamentalsFetcher: a.Fundamentals,
		Limiter:             a.Limiter,
		PromRegistry:        a.PromRegistry,
	}
}
