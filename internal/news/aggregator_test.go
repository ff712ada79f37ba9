package news

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equitycore/internal/domain"
)

type stubSource struct {
	name  string
	items []domain.NewsItem
	err   error
}

func (s stubSource) Name() string { return s.name }
func (s stubSource) FetchHeadlines(context.Context, string) ([]domain.NewsItem, error) {
	return s.items, s.err
}

func TestFetch_DedupsByLowercasedTrimmedTitle(t *testing.T) {
	now := time.Now()
	a := New(
		stubSource{name: "A", items: []domain.NewsItem{
			{Title: "  Acme Beats Earnings  ", Publisher: "A", PublishedAt: now},
		}},
		stubSource{name: "B", items: []domain.NewsItem{
			{Title: "acme beats earnings", Publisher: "B", PublishedAt: now.Add(-time.Minute)},
		}},
	)
	digest := a.Fetch(context.Background(), "ACME")
	require.Len(t, digest.Items, 1)
}

func TestFetch_ClassifiesNoiseSignalAndDirectional(t *testing.T) {
	now := time.Now()
	a := New(stubSource{name: "A", items: []domain.NewsItem{
		{Title: "ACME to the moon, diamond hands", Publisher: "X", PublishedAt: now},
		{Title: "ACME files 10-K with SEC", Publisher: "Y", PublishedAt: now.Add(-time.Minute)},
		{Title: "ACME stock surges on volume", Publisher: "Z", PublishedAt: now.Add(-2 * time.Minute)},
		{Title: "ACME announces new logo", Publisher: "W", PublishedAt: now.Add(-3 * time.Minute)},
	}})
	digest := a.Fetch(context.Background(), "ACME")
	require.Len(t, digest.Items, 4)

	byTitle := map[string]domain.NewsItem{}
	for _, it := range digest.Items {
		byTitle[it.Title] = it
	}
	assert.Equal(t, domain.NewsNoise, byTitle["ACME to the moon, diamond hands"].Classification)
	assert.Equal(t, -50.0, byTitle["ACME to the moon, diamond hands"].Score)
	assert.Equal(t, domain.NewsSignal, byTitle["ACME files 10-K with SEC"].Classification)
	assert.Equal(t, 80.0, byTitle["ACME files 10-K with SEC"].Score)
	assert.Equal(t, 20.0, byTitle["ACME stock surges on volume"].Score)
	assert.Equal(t, 0.0, byTitle["ACME announces new logo"].Score)
}

func TestFetch_SortsByPublishTimeDescAndCapsAtTwenty(t *testing.T) {
	now := time.Now()
	items := make([]domain.NewsItem, 25)
	for i := range items {
		items[i] = domain.NewsItem{
			Title:       time.Duration(i).String() + " unique headline",
			Publisher:   "P",
			PublishedAt: now.Add(time.Duration(-i) * time.Minute),
		}
	}
	a := New(stubSource{name: "A", items: items})
	digest := a.Fetch(context.Background(), "ACME")
	require.Len(t, digest.Items, 20)
	assert.True(t, digest.Items[0].PublishedAt.After(digest.Items[1].PublishedAt))
}

func TestFetch_NarrativeTrapWarningWhenNoisyAndConcentrated(t *testing.T) {
	now := time.Now()
	var items []domain.NewsItem
	for i := 0; i < 8; i++ {
		items = append(items, domain.NewsItem{
			Title:       "moon rocket yolo headline number " + time.Duration(i).String(),
			Publisher:   "SingleSource",
			PublishedAt: now.Add(time.Duration(-i) * time.Minute),
		})
	}
	a := New(stubSource{name: "A", items: items})
	digest := a.Fetch(context.Background(), "ACME")
	assert.Greater(t, digest.NoiseRatio, 60.0)
	assert.Less(t, digest.SourceDiversity, 0.3)
	assert.True(t, digest.NarrativeTrapWarning)
}

func TestFetch_IgnoresFailingSource(t *testing.T) {
	a := New(
		stubSource{name: "Bad", err: assertErr("boom")},
		stubSource{name: "Good", items: []domain.NewsItem{{Title: "ACME news", Publisher: "Good", PublishedAt: time.Now()}}},
	)
	digest := a.Fetch(context.Background(), "ACME")
	require.Len(t, digest.Items, 1)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
