package ports

import (
	"context"
	"time"

	"PowerOfWords/internal/domain"
)

// FeedFetcher retrieves and parses one syndication feed. Entries are
// returned in feed order; any transport or parse failure is reported as a
// single error for the whole source.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.Entry, error)
}

// FeedRepository is the persistence boundary for sources and enriched
// articles.
type FeedRepository interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
	// Exists is the dedup point lookup on (fingerprint, source). An empty
	// result is not an error; only connectivity failures return one.
	Exists(ctx context.Context, hash string, sourceID int) (bool, error)
	Insert(ctx context.Context, article domain.Article) error
}

// FeedBrowser serves the dashboard-facing queries over stored articles.
type FeedBrowser interface {
	SearchFeeds(ctx context.Context, filter domain.FeedFilter) ([]domain.Article, error)
	SentimentBreakdown(ctx context.Context, filter domain.FeedFilter, groupBy string) ([]domain.SentimentBucket, error)
}

// Scorer pushes text to the sentiment/emotion models. Both calls are slow
// and may fail independently of fetch and store operations; empty input
// yields zero scores without an error.
type Scorer interface {
	ScoreSentiment(ctx context.Context, text string) (domain.SentimentScores, error)
	ScoreEmotion(ctx context.Context, text string) (domain.EmotionScores, error)
}

// Scheduler controls when ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
