package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/ports"
)

// Client talks to the external inference service hosting the sentiment and
// emotion models.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Scorer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// ScoreSentiment classifies the text into the negative/positive/neutral
// triple. Empty input returns zero scores without touching the service.
func (c *Client) ScoreSentiment(ctx context.Context, text string) (domain.SentimentScores, error) {
	if strings.TrimSpace(text) == "" {
		return domain.SentimentScores{}, nil
	}

	var scores domain.SentimentScores
	if err := c.post(ctx, "/sentiment", map[string]any{"text": text}, &scores); err != nil {
		return domain.SentimentScores{}, err
	}

	if err := validateRange("sentiment",
		scores.Negative, scores.Positive, scores.Neutral); err != nil {
		return domain.SentimentScores{}, err
	}

	return scores, nil
}

// ScoreEmotion classifies the text into the six-way emotion set. Empty
// input returns zero scores without touching the service.
func (c *Client) ScoreEmotion(ctx context.Context, text string) (domain.EmotionScores, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmotionScores{}, nil
	}

	var scores domain.EmotionScores
	if err := c.post(ctx, "/emotion", map[string]any{"text": text}, &scores); err != nil {
		return domain.EmotionScores{}, err
	}

	if err := validateRange("emotion",
		scores.Anger, scores.Fear, scores.Joy, scores.Sadness, scores.Love, scores.Surprise); err != nil {
		return domain.EmotionScores{}, err
	}

	return scores, nil
}

func validateRange(kind string, values ...float64) error {
	for _, v := range values {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s score %v out of range [0,1]", kind, v)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
