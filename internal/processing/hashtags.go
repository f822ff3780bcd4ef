package processing

import (
	"fmt"
	"strings"
)

// HashtagGroup is one topic and the hashtags collected into it.
type HashtagGroup struct {
	Topic    string
	Hashtags []string
}

var DefaultHashtagGroups = []HashtagGroup{
	{Topic: "JohnsonAndJohnsonVaccine", Hashtags: []string{"JnJVaccine", "JnJ", "JohnsonAndJohnsonVaccine"}},
	{Topic: "PfizerVaccine", Hashtags: []string{"PfizerVaccine", "Pfizer"}},
	{Topic: "ModernaVaccine", Hashtags: []string{"ModernaVaccine", "Moderna"}},
	{Topic: "Vaccinated", Hashtags: []string{"Vaccinated"}},
}

// BuildQuery returns the search expression for a single hashtag: original
// English posts only, retweets excluded.
func BuildQuery(hashtag string) string {
	return "#" + strings.TrimPrefix(hashtag, "#") + " -RT AND lang:en"
}

// ParseHashtagGroups parses "Topic=tag1,tag2;Topic2=tag3". An empty value
// yields DefaultHashtagGroups.
func ParseHashtagGroups(value string) ([]HashtagGroup, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultHashtagGroups, nil
	}

	var groups []HashtagGroup
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		topic, tags, ok := strings.Cut(part, "=")
		topic = strings.TrimSpace(topic)
		if !ok || topic == "" {
			return nil, fmt.Errorf("[Hashtags] invalid group %q, want Topic=tag1,tag2", part)
		}
		if seen[topic] {
			return nil, fmt.Errorf("[Hashtags] duplicate topic %q", topic)
		}
		seen[topic] = true

		group := HashtagGroup{Topic: topic}
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
			if tag != "" {
				group.Hashtags = append(group.Hashtags, tag)
			}
		}
		if len(group.Hashtags) == 0 {
			return nil, fmt.Errorf("[Hashtags] topic %q has no hashtags", topic)
		}
		groups = append(groups, group)
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("[Hashtags] no groups in %q", value)
	}
	return groups, nil
}

// Topics returns the topic names of groups in order.
func Topics(groups []HashtagGroup) []string {
	topics := make([]string, 0, len(groups))
	for _, g := range groups {
		topics = append(topics, g.Topic)
	}
	return topics
}
