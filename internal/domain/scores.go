package domain

// SentimentScores holds the fixed-shape sentiment triple returned by the
// scoring service. Values are in [0,1] and need not sum to 1.
type SentimentScores struct {
	Negative float64 `json:"negative"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
}

// Dominant returns the highest-scoring sentiment label. Labels are checked
// in the order negative, positive, neutral; on an exact tie the first wins.
func (s SentimentScores) Dominant() string {
	return dominantLabel([]scoredLabel{
		{"negative", s.Negative},
		{"positive", s.Positive},
		{"neutral", s.Neutral},
	})
}

// EmotionScores holds the fixed-shape emotion sextuple returned by the
// scoring service. Values are in [0,1].
type EmotionScores struct {
	Anger    float64 `json:"anger"`
	Fear     float64 `json:"fear"`
	Joy      float64 `json:"joy"`
	Sadness  float64 `json:"sadness"`
	Love     float64 `json:"love"`
	Surprise float64 `json:"surprise"`
}

// Dominant returns the highest-scoring emotion label. Labels are checked in
// the order anger, fear, joy, sadness, love, surprise; ties go to the first.
func (e EmotionScores) Dominant() string {
	return dominantLabel([]scoredLabel{
		{"anger", e.Anger},
		{"fear", e.Fear},
		{"joy", e.Joy},
		{"sadness", e.Sadness},
		{"love", e.Love},
		{"surprise", e.Surprise},
	})
}

type scoredLabel struct {
	name  string
	score float64
}

func dominantLabel(labels []scoredLabel) string {
	best := labels[0]
	for _, l := range labels[1:] {
		if l.score > best.score {
			best = l
		}
	}
	return best.name
}
