package annotation

import (
	"regexp"
	"strings"
)

var fenceRE = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z0-9_-]*[ \t]*$")

// StripEnvelope removes markdown code fences and any prose around the JSON
// payload. It returns the candidate between the first '{' and the last '}',
// or the outer array when the payload itself is a bare array. Callers that
// need every candidate use envelopeCandidates.
func StripEnvelope(text string) (string, bool) {
	candidates := envelopeCandidates(text)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

func envelopeCandidates(text string) []string {
	t := strings.TrimSpace(fenceRE.ReplaceAllString(text, ""))
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}

	var array string
	if start, end := strings.Index(t, "["), strings.LastIndex(t, "]"); start >= 0 && end > start {
		array = t[start : end+1]
	}

	var out []string
	if array != "" && strings.HasPrefix(t, "[") {
		out = append(out, array)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		out = append(out, t[start:end+1])
	}

	// An array introduced by prose is tried after the object span.
	if array != "" && !strings.HasPrefix(t, "[") {
		out = append(out, array)
	}
	return out
}

var trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)

// repairCandidates returns progressively more aggressive repairs of a
// malformed JSON document: trailing commas removed, then unescaped quotes
// inside single-key string lines escaped.
func repairCandidates(jsonStr string) []string {
	noTrailing := trailingCommaRE.ReplaceAllString(jsonStr, "$1")
	return []string{noTrailing, escapeInnerQuotes(noTrailing)}
}

func escapeInnerQuotes(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	sanitized := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Lines carrying more than one key cannot be repaired line by line.
		if strings.HasPrefix(line, "\"") && strings.Count(line, "\":") == 1 {
			colonIdx := strings.Index(line, "\":") + 1
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				if lastQuote := strings.LastIndex(afterColon, "\""); lastQuote > 0 {
					content := afterColon[1:lastQuote]
					content = strings.ReplaceAll(content, `\"`, "\"")
					content = strings.ReplaceAll(content, "\"", `\"`)
					line = beforeColon + " \"" + content + "\"" + afterColon[lastQuote+1:]
				}
			}
		}

		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}
