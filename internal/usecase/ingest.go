package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/normalize"
	"PowerOfWords/internal/ports"
)

// IngestorDeps wires all driven adapters into the ingestion workflow.
type IngestorDeps struct {
	Fetcher    ports.FeedFetcher
	Repository ports.FeedRepository
	Scorer     ports.Scorer
	Stopwords  normalize.Stopwords
	Workers    int
	Logger     *slog.Logger
}

// Ingestor runs one full ingestion pass over all configured sources:
// fetch, normalize, dedup, score, persist.
type Ingestor struct {
	fetcher    ports.FeedFetcher
	repository ports.FeedRepository
	scorer     ports.Scorer
	stopwords  normalize.Stopwords
	workers    int
	logger     *slog.Logger
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestorDeps) *Ingestor {
	return &Ingestor{
		fetcher:    deps.Fetcher,
		repository: deps.Repository,
		scorer:     deps.Scorer,
		stopwords:  deps.Stopwords,
		workers:    deps.Workers,
		logger:     deps.Logger,
	}
}

// RunSummary aggregates the outcomes of one ingestion pass.
type RunSummary struct {
	SourcesFetched int
	SourcesFailed  int
	Persisted      int
	Duplicates     int
	ScoreFailed    int
	WriteFailed    int
	Elapsed        time.Duration
}

type sourceResult struct {
	fetched     bool
	persisted   int
	duplicates  int
	scoreFailed int
	writeFailed int
	fatal       error
}

// Run executes one ingestion pass. Sources run concurrently on a worker
// pool bounded by the configured cap and the source count; entries within a
// source are processed sequentially in feed order. Fetch and score/write
// failures are isolated to their source or entry. Only a store failure
// during the dedup check aborts the run, since treating "unknown" as "not
// duplicate" would risk double inserts.
func (in *Ingestor) Run(ctx context.Context) (RunSummary, error) {
	start := time.Now()

	sources, err := in.repository.ListSources(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list sources: %w", err)
	}

	var summary RunSummary
	if len(sources) == 0 {
		in.info("no sources configured")
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	workers := in.workers
	if workers <= 0 || workers > len(sources) {
		workers = len(sources)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan domain.Source)
	results := make(chan sourceResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				results <- in.processSource(runCtx, src)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, src := range sources {
			select {
			case jobs <- src:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var fatal error
	for res := range results {
		if res.fetched {
			summary.SourcesFetched++
		} else {
			summary.SourcesFailed++
		}
		summary.Persisted += res.persisted
		summary.Duplicates += res.duplicates
		summary.ScoreFailed += res.scoreFailed
		summary.WriteFailed += res.writeFailed

		if res.fatal != nil {
			if fatal == nil {
				fatal = res.fatal
			}
			cancel()
		}
	}

	summary.Elapsed = time.Since(start)
	in.info("ingestion run completed",
		"elapsed", summary.Elapsed,
		"sources_fetched", summary.SourcesFetched,
		"sources_failed", summary.SourcesFailed,
		"persisted", summary.Persisted,
		"duplicates", summary.Duplicates,
		"score_failed", summary.ScoreFailed,
		"write_failed", summary.WriteFailed)

	if fatal != nil {
		return summary, fatal
	}
	return summary, nil
}

func (in *Ingestor) processSource(ctx context.Context, src domain.Source) sourceResult {
	entries, err := in.fetcher.Fetch(ctx, src.RSS)
	if err != nil {
		in.error("feed fetch failed", "source", src.RSS, "error", err)
		return sourceResult{}
	}

	res := sourceResult{fetched: true}
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		in.processEntry(ctx, src, entry, &res)
		if res.fatal != nil {
			break
		}
	}
	return res
}

func (in *Ingestor) processEntry(ctx context.Context, src domain.Source, entry domain.Entry, res *sourceResult) {
	title := normalize.Title(entry.Title)
	link := normalize.Link(entry.Link)
	hash := normalize.Fingerprint(link)

	exists, err := in.repository.Exists(ctx, hash, src.ID)
	if err != nil {
		in.error("dedup check failed", "source_id", src.ID, "link", link, "error", err)
		res.fatal = fmt.Errorf("dedup check source %d: %w", src.ID, err)
		return
	}
	if exists {
		res.duplicates++
		return
	}

	sentiment, err := in.scorer.ScoreSentiment(ctx, title)
	if err != nil {
		in.error("sentiment scoring failed", "source_id", src.ID, "link", link, "error", err)
		res.scoreFailed++
		return
	}

	emotion, err := in.scorer.ScoreEmotion(ctx, title)
	if err != nil {
		in.error("emotion scoring failed", "source_id", src.ID, "link", link, "error", err)
		res.scoreFailed++
		return
	}

	article := domain.Article{
		Title:     title,
		Link:      link,
		Hash:      hash,
		SourceID:  src.ID,
		Words:     normalize.Tokenize(title, in.stopwords),
		Published: entry.Published,
		Sentiment: sentiment,
		Emotion:   emotion,
	}
	if !entry.Published.IsZero() {
		article.FeedDate = entry.Published.Format("2006-01-02")
	}

	if err := in.repository.Insert(ctx, article); err != nil {
		in.error("feed write failed", "source_id", src.ID, "link", link, "error", err)
		res.writeFailed++
		return
	}
	res.persisted++
}

func (in *Ingestor) info(msg string, args ...interface{}) {
	if in.logger != nil {
		in.logger.Info(msg, args...)
	}
}

func (in *Ingestor) error(msg string, args ...interface{}) {
	if in.logger != nil {
		in.logger.Error(msg, args...)
	}
}
