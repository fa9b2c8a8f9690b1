package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// dominantSentimentExpr mirrors the dominant-label tie-break: negative wins
// over positive, positive over neutral, on exact equality.
const dominantSentimentExpr = `CASE
    WHEN GREATEST(negative, positive, neutral) = negative THEN 'negative'
    WHEN GREATEST(negative, positive, neutral) = positive THEN 'positive'
    ELSE 'neutral'
END`

// PostgresRepository persists sources and enriched articles in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.FeedRepository = (*PostgresRepository)(nil)
var _ ports.FeedBrowser = (*PostgresRepository)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the sources and feeds tables plus the unique index
// backing the (hash, source_id) dedup invariant.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			rss TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id SERIAL PRIMARY KEY,
			title TEXT,
			link TEXT,
			hash VARCHAR(64) NOT NULL,
			source_id INTEGER NOT NULL REFERENCES sources (id),
			words TEXT[] DEFAULT '{}',
			published TIMESTAMP,
			feed_date DATE,
			sentiment_prediction TEXT,
			negative DOUBLE PRECISION,
			positive DOUBLE PRECISION,
			neutral DOUBLE PRECISION,
			emotion_prediction TEXT,
			anger DOUBLE PRECISION,
			fear DOUBLE PRECISION,
			joy DOUBLE PRECISION,
			sadness DOUBLE PRECISION,
			love DOUBLE PRECISION,
			surprise DOUBLE PRECISION,
			created TIMESTAMP NOT NULL DEFAULT NOW(),
			updated TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS feeds_hash_source_idx ON feeds (hash, source_id)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ListSources returns all configured syndication sources.
func (r *PostgresRepository) ListSources(ctx context.Context) ([]domain.Source, error) {
	query, args, err := psql.Select("id", "name", "rss").From("sources").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var s domain.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.RSS); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sources iteration: %w", err)
	}

	return sources, nil
}

// Exists performs the dedup point lookup on (hash, source_id). A missing
// row is not an error; anything else indicates a store failure.
func (r *PostgresRepository) Exists(ctx context.Context, hash string, sourceID int) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM feeds WHERE hash = $1 AND source_id = $2 LIMIT 1`,
		hash, sourceID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return true, nil
}

// Insert writes one enriched article. The unique index on (hash, source_id)
// makes the write insert-if-absent.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.Article) error {
	sentimentJSON, err := json.Marshal(article.Sentiment)
	if err != nil {
		return fmt.Errorf("marshal sentiment: %w", err)
	}
	emotionJSON, err := json.Marshal(article.Emotion)
	if err != nil {
		return fmt.Errorf("marshal emotion: %w", err)
	}

	published := sql.NullTime{Time: article.Published, Valid: !article.Published.IsZero()}
	feedDate := sql.NullString{String: article.FeedDate, Valid: article.FeedDate != ""}

	query, args, err := psql.Insert("feeds").
		Columns("title", "link", "hash", "source_id", "words", "published", "feed_date",
			"sentiment_prediction", "negative", "positive", "neutral",
			"emotion_prediction", "anger", "fear", "joy", "sadness", "love", "surprise").
		Values(article.Title, article.Link, article.Hash, article.SourceID,
			pq.Array(article.Words), published, feedDate,
			string(sentimentJSON), article.Sentiment.Negative, article.Sentiment.Positive, article.Sentiment.Neutral,
			string(emotionJSON), article.Emotion.Anger, article.Emotion.Fear, article.Emotion.Joy,
			article.Emotion.Sadness, article.Emotion.Love, article.Emotion.Surprise).
		Suffix("ON CONFLICT (hash, source_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}
	return nil
}

// SearchFeeds returns stored articles matching the browsing filters, newest
// first.
func (r *PostgresRepository) SearchFeeds(ctx context.Context, filter domain.FeedFilter) ([]domain.Article, error) {
	builder := psql.Select("id", "title", "link", "hash", "source_id", "words",
		"published", "feed_date",
		"negative", "positive", "neutral",
		"anger", "fear", "joy", "sadness", "love", "surprise").
		From("feeds").
		OrderBy("published DESC NULLS LAST").
		Limit(500)
	builder = applyFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feeds query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			a         domain.Article
			published sql.NullTime
			feedDate  sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.Hash, &a.SourceID,
			pq.Array(&a.Words), &published, &feedDate,
			&a.Sentiment.Negative, &a.Sentiment.Positive, &a.Sentiment.Neutral,
			&a.Emotion.Anger, &a.Emotion.Fear, &a.Emotion.Joy,
			&a.Emotion.Sadness, &a.Emotion.Love, &a.Emotion.Surprise); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		if published.Valid {
			a.Published = published.Time
		}
		if feedDate.Valid {
			a.FeedDate = feedDate.Time.Format("2006-01-02")
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feeds iteration: %w", err)
	}

	return articles, nil
}

// SentimentBreakdown counts stored articles by dominant sentiment, grouped
// by source or by calendar date.
func (r *PostgresRepository) SentimentBreakdown(ctx context.Context, filter domain.FeedFilter, groupBy string) ([]domain.SentimentBucket, error) {
	column, ok := map[string]string{
		"source": "source_id",
		"date":   "feed_date",
	}[groupBy]
	if !ok {
		return nil, fmt.Errorf("unsupported group %q", groupBy)
	}

	builder := psql.Select(
		column+"::text AS grp",
		"count(id) AS total",
		dominantSentimentExpr+" AS sentiment").
		From("feeds").
		GroupBy("grp", "sentiment").
		OrderBy("grp")
	builder = applyFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build breakdown query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()

	var buckets []domain.SentimentBucket
	for rows.Next() {
		var (
			group  sql.NullString
			bucket domain.SentimentBucket
		)
		if err := rows.Scan(&group, &bucket.Count, &bucket.Sentiment); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		bucket.Group = group.String
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("breakdown iteration: %w", err)
	}

	return buckets, nil
}

func applyFilter(builder sq.SelectBuilder, filter domain.FeedFilter) sq.SelectBuilder {
	if filter.StartDate != "" {
		builder = builder.Where(sq.GtOrEq{"feed_date": filter.StartDate})
	}
	if filter.EndDate != "" {
		builder = builder.Where(sq.LtOrEq{"feed_date": filter.EndDate})
	}
	if len(filter.Words) > 0 {
		words := make([]string, 0, len(filter.Words))
		for _, w := range filter.Words {
			words = append(words, strings.ToLower(strings.TrimSpace(w)))
		}
		builder = builder.Where(sq.Expr("words @> ?", pq.Array(words)))
	}
	if len(filter.Sources) > 0 {
		builder = builder.Where(sq.Eq{"source_id": filter.Sources})
	}
	if filter.FreeText != "" {
		builder = builder.Where(sq.ILike{"title": "%" + filter.FreeText + "%"})
	}
	return builder
}
