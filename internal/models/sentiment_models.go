package models

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

type AnalyzedRecord struct {
	Record
	CleanedText    string         `json:"cleaned_text"`
	SentimentScore float64        `json:"sentiment_score"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
}

type SentimentCount struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Count      int            `json:"counts"`
	Percentage float64        `json:"percentage"`
	Analyzer   string         `json:"analyzer"`
}

type TopicReport struct {
	Topic    string           `json:"topic"`
	Total    int              `json:"total"`
	Analyzed []AnalyzedRecord `json:"-"`
	Counts   []SentimentCount `json:"counts"`
}
