package service

import (
	"strings"
	"unicode"

	"github.com/pkordes/trip-planner/internal/textutil"
)

// Meta keys written by RecordFeedback.
const (
	MetaFeedback  = "feedback"
	MetaSentiment = "sentiment"
)

// Sentiment is a coarse label for traveller feedback.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Word lists are accent-folded, lowercase, English and Portuguese.
var (
	positiveWords = wordSet("good", "great", "amazing", "awesome", "beautiful", "love", "loved", "excellent",
		"perfect", "wonderful", "fantastic", "enjoyed", "nice", "fun", "relaxing",
		"bom", "boa", "otimo", "otima", "incrivel", "lindo", "linda", "adorei", "perfeito", "maravilhoso", "excelente")
	negativeWords = wordSet("bad", "terrible", "awful", "horrible", "hate", "hated", "boring", "dirty", "crowded",
		"expensive", "disappointing", "worst", "rain", "ruined",
		"ruim", "pessimo", "pessima", "horrivel", "odiei", "chato", "sujo", "caro", "lotado", "decepcionante")
	negators = wordSet("not", "never", "no", "nao", "nunca", "nem")
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Classify labels text by counting lexicon hits. A negator directly before a
// word flips its polarity.
func Classify(text string) Sentiment {
	words := strings.FieldsFunc(textutil.Slugify(text), func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	score := 0
	for i, w := range words {
		polarity := 0
		if _, ok := positiveWords[w]; ok {
			polarity = 1
		} else if _, ok := negativeWords[w]; ok {
			polarity = -1
		}
		if polarity == 0 {
			continue
		}
		if i > 0 {
			if _, ok := negators[words[i-1]]; ok {
				polarity = -polarity
			}
		}
		score += polarity
	}
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
