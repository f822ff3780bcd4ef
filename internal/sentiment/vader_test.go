package sentiment

import (
	"testing"

	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "RT @cdcgov: Got my #PfizerVaccine today https://t.co/abc123", want: "Got my today"},
		{in: "Dose 2 done 💉💪 feeling great :)", want: "Dose done feeling great"},
		{in: "www.example.com   spaced    out", want: "spaced out"},
		{in: "#JnJ", want: ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Clean(tc.in), "input %q", tc.in)
	}
}

func TestRemovePunctuation(t *testing.T) {
	assert.Equal(t, "50 efficacy  and rising", RemovePunctuation("50% efficacy &amp; and rising;"))
	assert.Equal(t, "ab", RemovePunctuation(`a/\:b`))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.SentimentPositive, Classify(0.05))
	assert.Equal(t, models.SentimentPositive, Classify(0.9))
	assert.Equal(t, models.SentimentNegative, Classify(-0.05))
	assert.Equal(t, models.SentimentNegative, Classify(-0.6))
	assert.Equal(t, models.SentimentNeutral, Classify(0.049))
	assert.Equal(t, models.SentimentNeutral, Classify(0))
}

func TestAnalyzer_Score(t *testing.T) {
	a := NewAnalyzer()

	score, label := a.Score("I love this vaccine, it is great and wonderful")
	assert.Greater(t, score, 0.05)
	assert.Equal(t, models.SentimentPositive, label)

	score, label = a.Score("terrible side effects, I feel awful and sick")
	assert.Less(t, score, -0.05)
	assert.Equal(t, models.SentimentNegative, label)

	_, label = a.Score("the appointment is on tuesday")
	assert.Equal(t, models.SentimentNeutral, label)

	assert.Equal(t, "VADER", a.Name())
}
