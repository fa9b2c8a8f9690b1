package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"PowerOfWords/internal/domain"
)

const analyticsCacheTTL = 5 * time.Minute

type feedResponse struct {
	ID                int                    `json:"id"`
	Title             string                 `json:"title"`
	Link              string                 `json:"link"`
	SourceID          int                    `json:"sourceId"`
	Words             []string               `json:"words"`
	Published         *time.Time             `json:"published,omitempty"`
	FeedDate          string                 `json:"feedDate,omitempty"`
	Sentiment         domain.SentimentScores `json:"sentiment"`
	Emotion           domain.EmotionScores   `json:"emotion"`
	DominantSentiment string                 `json:"dominantSentiment"`
	DominantEmotion   string                 `json:"dominantEmotion"`
}

func (s *Server) listSources(c *gin.Context) {
	sources, err := s.store.ListSources(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "list sources", err)
		return
	}

	type sourceResponse struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		RSS  string `json:"rss"`
	}
	out := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		out = append(out, sourceResponse{ID: src.ID, Name: src.Name, RSS: src.RSS})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listFeeds(c *gin.Context) {
	filter := filterFromQuery(c)

	articles, err := s.store.SearchFeeds(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "search feeds", err)
		return
	}

	out := make([]feedResponse, 0, len(articles))
	for _, a := range articles {
		item := feedResponse{
			ID:                a.ID,
			Title:             a.Title,
			Link:              a.Link,
			SourceID:          a.SourceID,
			Words:             a.Words,
			FeedDate:          a.FeedDate,
			Sentiment:         a.Sentiment,
			Emotion:           a.Emotion,
			DominantSentiment: a.Sentiment.Dominant(),
			DominantEmotion:   a.Emotion.Dominant(),
		}
		if !a.Published.IsZero() {
			published := a.Published
			item.Published = &published
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) sentimentAnalytics(c *gin.Context) {
	group := c.DefaultQuery("group", "source")
	if group != "source" && group != "date" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group must be source or date"})
		return
	}
	filter := filterFromQuery(c)

	ctx := c.Request.Context()
	cacheKey := analyticsCacheKey(group, filter)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}
	}

	buckets, err := s.store.SentimentBreakdown(ctx, filter, group)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "sentiment breakdown", err)
		return
	}

	type bucketResponse struct {
		Group     string `json:"group"`
		Sentiment string `json:"sentiment"`
		Count     int    `json:"count"`
	}
	out := make([]bucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketResponse{Group: b.Group, Sentiment: b.Sentiment, Count: b.Count})
	}

	if s.cache != nil {
		if body, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, cacheKey, body, analyticsCacheTTL).Err()
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) analyzeText(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ctx := c.Request.Context()
	sentiment, err := s.scorer.ScoreSentiment(ctx, req.Text)
	if err != nil {
		s.fail(c, http.StatusBadGateway, "score sentiment", err)
		return
	}
	emotion, err := s.scorer.ScoreEmotion(ctx, req.Text)
	if err != nil {
		s.fail(c, http.StatusBadGateway, "score emotion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sentiment":         sentiment,
		"emotion":           emotion,
		"dominantSentiment": sentiment.Dominant(),
		"dominantEmotion":   emotion.Dominant(),
	})
}

// analyticsCacheKey covers every dimension the breakdown query varies on,
// so requests with different filters never share a cached response.
func analyticsCacheKey(group string, filter domain.FeedFilter) string {
	sources := make([]string, 0, len(filter.Sources))
	for _, id := range filter.Sources {
		sources = append(sources, strconv.Itoa(id))
	}
	return fmt.Sprintf("analytics:sentiment:%s:%s:%s:%s:%s:%s",
		group, filter.StartDate, filter.EndDate, filter.FreeText,
		strings.Join(filter.Words, ","), strings.Join(sources, ","))
}

func (s *Server) fail(c *gin.Context, status int, op string, err error) {
	if s.logger != nil {
		s.logger.Error("request failed", "op", op, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func filterFromQuery(c *gin.Context) domain.FeedFilter {
	filter := domain.FeedFilter{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		FreeText:  c.Query("q"),
	}

	if words := c.Query("words"); words != "" {
		for _, w := range strings.Split(words, ",") {
			if w = strings.TrimSpace(w); w != "" {
				filter.Words = append(filter.Words, w)
			}
		}
	}

	if sources := c.Query("sources"); sources != "" {
		for _, raw := range strings.Split(sources, ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				filter.Sources = append(filter.Sources, id)
			}
		}
	}

	return filter
}
