package domain

import "time"

// Source is one configured syndication feed, loaded once at run start.
type Source struct {
	ID   int
	Name string
	RSS  string
}

// Entry is the raw representation of one feed item before normalization.
// Published is the zero time when the feed carries no usable timestamp.
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// Article is the enriched record persisted for each new feed item.
// Hash is a pure function of the canonicalized link and, together with
// SourceID, forms the dedup key.
type Article struct {
	ID        int
	Title     string
	Link      string
	Hash      string
	SourceID  int
	Words     []string
	Published time.Time
	FeedDate  string
	Sentiment SentimentScores
	Emotion   EmotionScores
}

// FeedFilter narrows browsing and analytics queries over stored articles.
type FeedFilter struct {
	Words     []string
	Sources   []int
	StartDate string
	EndDate   string
	FreeText  string
}

// SentimentBucket is one row of a grouped dominant-sentiment breakdown.
type SentimentBucket struct {
	Group     string
	Sentiment string
	Count     int
}
