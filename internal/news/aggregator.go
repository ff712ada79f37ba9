// Package news implements NewsAggregator (spec.md §4.7): a multi-source
// fan-out, dedup, and signal/noise classifier, grounded in the provider
// failover chain's fan-out idiom (internal/provider/chain.go) but run
// concurrently rather than sequentially since every source here is wanted,
// not just the first success.
package news

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sawpanic/equitycore/internal/domain"
)

// Source is a single news feed the aggregator fans out to.
type Source interface {
	Name() string
	FetchHeadlines(ctx context.Context, ticker string) ([]domain.NewsItem, error)
}

const (
	maxItems               = 20
	noiseScore             = -50.0
	signalScore            = 80.0
	directionalScore       = 20.0
	narrativeTrapNoiseRatio = 60.0
	narrativeTrapDiversity  = 0.3
)

// noisePatterns catch retail-hype headlines; signalPatterns catch
// fundamentals-moving events. Both lists are intentionally small and
// explicit rather than ML-scored, matching original_source/app/news_rules.py.
var noisePatterns = regexp.MustCompile(`(?i)\b(moon|rocket|yolo|squeeze|to the moon|diamond hands|fomo|hype)\b`)
var signalPatterns = regexp.MustCompile(`(?i)\b(earnings|10-[qk]|sec filing|acquisition|merger|m&a|guidance|downgrade|upgrade|lawsuit|recall|bankruptcy|dividend)\b`)
var bullishWords = regexp.MustCompile(`(?i)\b(beats?|surges?|soars?|rally|record high|outperform)\b`)
var bearishWords = regexp.MustCompile(`(?i)\b(misses?|plunges?|slumps?|crashes?|underperform|sinks?)\b`)

// Aggregator fans out to every configured Source and produces a NewsDigest.
type Aggregator struct {
	sources []Source
}

// New builds an Aggregator over sources. It accepts any number of sources
// and does not enforce a minimum; cmd/equitycore wires two.
func New(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

type fetchResult struct {
	items []domain.NewsItem
	err   error
}

// Fetch runs every source concurrently, merges, dedups, classifies, scores,
// and caps the digest at 20 items (spec.md §4.7).
func (a *Aggregator) Fetch(ctx context.Context, ticker string) domain.NewsDigest {
	results := make([]fetchResult, len(a.sources))
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			items, err := src.FetchHeadlines(ctx, ticker)
			results[i] = fetchResult{items: items, err: err}
		}(i, src)
	}
	wg.Wait()

	var merged []domain.NewsItem
	for _, r := range results {
		if r.err != nil {
			continue
		}
		merged = append(merged, r.items...)
	}

	deduped := dedup(merged)
	for i := range deduped {
		classify(&deduped[i])
	}

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].PublishedAt.After(deduped[j].PublishedAt)
	})
	if len(deduped) > maxItems {
		deduped = deduped[:maxItems]
	}

	return domain.NewsDigest{
		Ticker:               ticker,
		Items:                deduped,
		SignalScore:          meanScore(deduped),
		NoiseRatio:           noiseRatio(deduped),
		SourceDiversity:      sourceDiversity(deduped),
		NarrativeTrapWarning: isNarrativeTrap(deduped),
	}
}

func dedup(items []domain.NewsItem) []domain.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it.Title))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// classify assigns a classification and score per the pattern table in
// spec.md §4.7: NOISE patterns beat SIGNAL patterns beat generic
// directional words beat the zero default, checked in that priority order.
func classify(item *domain.NewsItem) {
	switch {
	case noisePatterns.MatchString(item.Title):
		item.Classification = domain.NewsNoise
		item.Score = noiseScore
	case signalPatterns.MatchString(item.Title):
		item.Classification = domain.NewsSignal
		item.Score = signalScore
	case bullishWords.MatchString(item.Title):
		item.Classification = domain.NewsNeutral
		item.Score = directionalScore
	case bearishWords.MatchString(item.Title):
		item.Classification = domain.NewsNeutral
		item.Score = -directionalScore
	default:
		item.Classification = domain.NewsNeutral
		item.Score = 0
	}
}

func meanScore(items []domain.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0.0
	for _, it := range items {
		sum += it.Score
	}
	return sum / float64(len(items))
}

func noiseRatio(items []domain.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}
	noise := 0
	for _, it := range items {
		if it.Classification == domain.NewsNoise {
			noise++
		}
	}
	return float64(noise) / float64(len(items)) * 100
}

func sourceDiversity(items []domain.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}
	publishers := make(map[string]struct{}, len(items))
	for _, it := range items {
		publishers[it.Publisher] = struct{}{}
	}
	return float64(len(publishers)) / float64(len(items))
}

func isNarrativeTrap(items []domain.NewsItem) bool {
	return noiseRatio(items) > narrativeTrapNoiseRatio && sourceDiversity(items) < narrativeTrapDiversity
}
