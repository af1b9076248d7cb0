package ai

import (
	"regexp"
	"strings"

	"video-annotator/internal/models"

	"github.com/tidwall/gjson"
)

// SuggestClassesPrompt asks for label candidates for a new collection.
const SuggestClassesPrompt = `Analyze this video and list 5-10 distinct categories of objects, actions, or events that appear frequently and would be valuable for training a computer vision model.

Focus on:

Key Objects (e.g., specific vehicles, tools, distinct people types)

Key Actions (e.g., movements, interactions, procedural steps)

Critical Events (e.g., anomalies, specific state changes)

Return ONLY a JSON object with a key 'suggested_classes' containing a list of strings. Do not provide explanations.`

var (
	listSplitRE  = regexp.MustCompile(`[\n,]+`)
	listBulletRE = regexp.MustCompile(`^[-\d.\s*]+`)
)

// ParseSuggestedClasses reads the suggested_classes array from a response.
// Without a usable JSON object it falls back to splitting the text on
// newlines and commas. The result is deduplicated in first-seen order.
func ParseSuggestedClasses(text string) []string {
	var labels models.LabelSet

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start && gjson.Valid(text[start:end+1]) {
		for _, c := range gjson.Get(text[start:end+1], "suggested_classes").Array() {
			labels.Add(c.String())
		}
		return labels
	}

	for _, part := range listSplitRE.Split(text, -1) {
		labels.Add(listBulletRE.ReplaceAllString(part, ""))
	}
	return labels
}
