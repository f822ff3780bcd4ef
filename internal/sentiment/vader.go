package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/spacesedan/tweetflow/internal/models"
)

// NEUTRAL_THRESHOLD bounds the compound score band labelled Neutral.
const NEUTRAL_THRESHOLD = 0.05

const ANALYZER_NAME = "VADER"

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionPattern  = regexp.MustCompile(`@\w+:?`)
	hashtagPattern  = regexp.MustCompile(`#\w+`)
	reservedPattern = regexp.MustCompile(`\b(RT|FAV)\b:?`)
	emojiPattern    = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE0F}\x{200D}]`)
	smileyPattern   = regexp.MustCompile(`(?:^|\s)[:;=][-']?[()DPpO/\\|]+`)
	numberPattern   = regexp.MustCompile(`\b\d+(?:[.,]\d+)*\b`)

	punctuation = []string{"%", "/", ":", "\\", "&amp;", "&", ";"}
)

// Clean strips the parts of a post that carry no sentiment of their own:
// links, mentions, hashtags, RT/FAV markers, emoji, smileys and numbers.
func Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = hashtagPattern.ReplaceAllString(text, " ")
	text = reservedPattern.ReplaceAllString(text, " ")
	text = emojiPattern.ReplaceAllString(text, " ")
	text = smileyPattern.ReplaceAllString(text, " ")
	text = numberPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func RemovePunctuation(text string) string {
	for _, p := range punctuation {
		text = strings.ReplaceAll(text, p, "")
	}
	return text
}

// Classify buckets a compound polarity score.
func Classify(score float64) models.SentimentLabel {
	switch {
	case score >= NEUTRAL_THRESHOLD:
		return models.SentimentPositive
	case score <= -NEUTRAL_THRESHOLD:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

func (a *Analyzer) Name() string {
	return ANALYZER_NAME
}

// Score returns the VADER compound score of already cleaned text and its
// label.
func (a *Analyzer) Score(text string) (float64, models.SentimentLabel) {
	score := a.vader.PolarityScores(text).Compound
	return score, Classify(score)
}
