package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/normalize"
)

type fakeFetcher struct {
	entries map[string][]domain.Entry
	errs    map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, feedURL string) ([]domain.Entry, error) {
	if err := f.errs[feedURL]; err != nil {
		return nil, err
	}
	return f.entries[feedURL], nil
}

type fakeRepository struct {
	mu        sync.Mutex
	sources   []domain.Source
	stored    map[string]domain.Article
	order     []string
	existsErr error
	insertErr error
}

func newFakeRepository(sources ...domain.Source) *fakeRepository {
	return &fakeRepository{sources: sources, stored: map[string]domain.Article{}}
}

func dedupKey(hash string, sourceID int) string {
	return fmt.Sprintf("%s|%d", hash, sourceID)
}

func (r *fakeRepository) ListSources(context.Context) ([]domain.Source, error) {
	return r.sources, nil
}

func (r *fakeRepository) Exists(_ context.Context, hash string, sourceID int) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stored[dedupKey(hash, sourceID)]
	return ok, nil
}

func (r *fakeRepository) Insert(_ context.Context, article domain.Article) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dedupKey(article.Hash, article.SourceID)
	if _, ok := r.stored[key]; ok {
		return nil
	}
	r.stored[key] = article
	r.order = append(r.order, article.Link)
	return nil
}

type fakeScorer struct {
	err error
}

func (s *fakeScorer) ScoreSentiment(context.Context, string) (domain.SentimentScores, error) {
	if s.err != nil {
		return domain.SentimentScores{}, s.err
	}
	return domain.SentimentScores{Negative: 0.1, Positive: 0.8, Neutral: 0.1}, nil
}

func (s *fakeScorer) ScoreEmotion(context.Context, string) (domain.EmotionScores, error) {
	if s.err != nil {
		return domain.EmotionScores{}, s.err
	}
	return domain.EmotionScores{Joy: 0.9}, nil
}

func newIngestor(fetcher *fakeFetcher, repo *fakeRepository, scorer *fakeScorer) *Ingestor {
	return NewIngestor(IngestorDeps{
		Fetcher:    fetcher,
		Repository: repo,
		Scorer:     scorer,
		Stopwords:  normalize.NewStopwords("a", "az", "és"),
		Workers:    4,
	})
}

func TestRunPersistsNewAndSkipsDuplicate(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 1, Name: "444.hu", RSS: "https://444.hu/rss"}
	repo := newFakeRepository(src)

	known := "https://444.hu/cikk/regi"
	repo.stored[dedupKey(normalize.Fingerprint(known), src.ID)] = domain.Article{}

	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{
		src.RSS: {
			{Title: "Régi hír", Link: known, Published: time.Now()},
			{Title: "Friss hír - fotók", Link: "https://444.hu/cikk/uj", Published: time.Now()},
		},
	}}

	summary, err := newIngestor(fetcher, repo, &fakeScorer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Persisted != 1 || summary.Duplicates != 1 {
		t.Fatalf("expected 1 persisted and 1 duplicate, got %+v", summary)
	}
	if summary.SourcesFetched != 1 || summary.SourcesFailed != 0 {
		t.Fatalf("unexpected source counts: %+v", summary)
	}

	stored, ok := repo.stored[dedupKey(normalize.Fingerprint("https://444.hu/cikk/uj"), src.ID)]
	if !ok {
		t.Fatalf("new article was not stored")
	}
	if stored.Title != "Friss hír" {
		t.Fatalf("title not normalized before persist: %q", stored.Title)
	}
}

func TestRunTwiceInsertsEachKeyOnce(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 2, Name: "telex.hu", RSS: "https://telex.hu/rss"}
	repo := newFakeRepository(src)
	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{
		src.RSS: {
			{Title: "Első", Link: "https://telex.hu/cikk/1", Published: time.Now()},
			{Title: "Második", Link: "https://telex.hu/cikk/2", Published: time.Now()},
		},
	}}
	ing := newIngestor(fetcher, repo, &fakeScorer{})

	first, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Persisted != 2 || second.Persisted != 0 || second.Duplicates != 2 {
		t.Fatalf("dedup across runs broken: first %+v second %+v", first, second)
	}
	if len(repo.stored) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(repo.stored))
	}
}

func TestRunIsolatesFetchFailures(t *testing.T) {
	t.Parallel()

	a := domain.Source{ID: 1, Name: "a", RSS: "https://a.hu/rss"}
	b := domain.Source{ID: 2, Name: "b", RSS: "https://b.hu/rss"}
	c := domain.Source{ID: 3, Name: "c", RSS: "https://c.hu/rss"}
	repo := newFakeRepository(a, b, c)

	fetcher := &fakeFetcher{
		errs: map[string]error{a.RSS: errors.New("connection refused")},
		entries: map[string][]domain.Entry{
			b.RSS: {{Title: "B hír", Link: "https://b.hu/cikk/1"}},
			c.RSS: {{Title: "C hír", Link: "https://c.hu/cikk/1"}},
		},
	}

	summary, err := newIngestor(fetcher, repo, &fakeScorer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.SourcesFailed != 1 || summary.SourcesFetched != 2 {
		t.Fatalf("unexpected source counts: %+v", summary)
	}
	if summary.Persisted != 2 {
		t.Fatalf("healthy sources must still persist, got %+v", summary)
	}
}

func TestRunScoreFailureSkipsEntryOnly(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 1, Name: "444.hu", RSS: "https://444.hu/rss"}
	repo := newFakeRepository(src)
	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{
		src.RSS: {{Title: "Hír", Link: "https://444.hu/cikk/1"}},
	}}

	summary, err := newIngestor(fetcher, repo, &fakeScorer{err: errors.New("model timeout")}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.ScoreFailed != 1 || summary.Persisted != 0 {
		t.Fatalf("score failure must skip the entry, got %+v", summary)
	}
	if len(repo.stored) != 0 {
		t.Fatalf("failed entry must leave no trace in the store")
	}
}

func TestRunWriteFailureContinuesSource(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 1, Name: "444.hu", RSS: "https://444.hu/rss"}
	repo := newFakeRepository(src)
	repo.insertErr = errors.New("disk full")
	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{
		src.RSS: {
			{Title: "Egyik", Link: "https://444.hu/cikk/1"},
			{Title: "Másik", Link: "https://444.hu/cikk/2"},
		},
	}}

	summary, err := newIngestor(fetcher, repo, &fakeScorer{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.WriteFailed != 2 {
		t.Fatalf("both writes should fail without aborting the source, got %+v", summary)
	}
	if summary.SourcesFetched != 1 {
		t.Fatalf("source should still count as fetched: %+v", summary)
	}
}

func TestRunAbortsOnDedupCheckFailure(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 1, Name: "444.hu", RSS: "https://444.hu/rss"}
	repo := newFakeRepository(src)
	repo.existsErr = errors.New("store unreachable")
	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{
		src.RSS: {{Title: "Hír", Link: "https://444.hu/cikk/1"}},
	}}

	_, err := newIngestor(fetcher, repo, &fakeScorer{}).Run(context.Background())
	if err == nil {
		t.Fatalf("dedup-check connectivity failure must abort the run")
	}
	if len(repo.stored) != 0 {
		t.Fatalf("nothing may be persisted once the dedup check is unreliable")
	}
}

func TestRunPreservesFeedOrderWithinSource(t *testing.T) {
	t.Parallel()

	src := domain.Source{ID: 1, Name: "444.hu", RSS: "https://444.hu/rss"}
	repo := newFakeRepository(src)

	var entries []domain.Entry
	var want []string
	for i := 0; i < 10; i++ {
		link := fmt.Sprintf("https://444.hu/cikk/%d", i)
		entries = append(entries, domain.Entry{Title: fmt.Sprintf("Hír %d", i), Link: link})
		want = append(want, link)
	}
	fetcher := &fakeFetcher{entries: map[string][]domain.Entry{src.RSS: entries}}

	if _, err := newIngestor(fetcher, repo, &fakeScorer{}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.order) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(repo.order))
	}
	for i := range want {
		if repo.order[i] != want[i] {
			t.Fatalf("write order diverged at %d: %s != %s", i, repo.order[i], want[i])
		}
	}
}

func TestRunCapsWorkersAndJoins(t *testing.T) {
	t.Parallel()

	var sources []domain.Source
	entries := map[string][]domain.Entry{}
	for i := 1; i <= 8; i++ {
		url := fmt.Sprintf("https://s%d.hu/rss", i)
		sources = append(sources, domain.Source{ID: i, Name: fmt.Sprintf("s%d", i), RSS: url})
		entries[url] = []domain.Entry{{Title: fmt.Sprintf("Hír %d", i), Link: fmt.Sprintf("https://s%d.hu/cikk", i)}}
	}
	repo := newFakeRepository(sources...)

	ing := NewIngestor(IngestorDeps{
		Fetcher:    &fakeFetcher{entries: entries},
		Repository: repo,
		Scorer:     &fakeScorer{},
		Stopwords:  normalize.NewStopwords(),
		Workers:    2,
	})

	summary, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Persisted != 8 || summary.SourcesFetched != 8 {
		t.Fatalf("run must not return before all workers finish: %+v", summary)
	}
}
