package annotation

import (
	"regexp"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/timecode"
)

const timecodePattern = `\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?`

var (
	rangeRE    = regexp.MustCompile(`(` + timecodePattern + `)[ \t]*(?:-|–|to)[ \t]*(` + timecodePattern + `)`)
	timecodeRE = regexp.MustCompile(timecodePattern)

	anchorRE  = regexp.MustCompile(`(?im)^[ \t*#>-]*(?:start(?:[ _]time)?|timestamp|time)\**[ \t]*:`)
	endLineRE = regexp.MustCompile(`(?im)^[ \t*#>-]*end(?:[ _]time)?\**[ \t]*:[ \t]*\**[ \t]*(` + timecodePattern + `)[^\n]*$`)
	descKeyRE = regexp.MustCompile(`(?im)^[ \t*#>-]*description\**[ \t]*:[ \t]*\**`)
	keyLineRE = regexp.MustCompile(`(?im)^[ \t*#>-]*\**(?:end(?:[ _]time)?|description|scene[ _]classification|detected[ _]objects|detected[ _]actions|overall[ _]confidence|confidence[ _]score)\**[ \t]*:`)
)

// parsePlainText splits free text into blocks that each begin at a
// Start:, Timestamp: or Time: line. Text before the first such line is
// dropped.
func parsePlainText(text string) []models.AnnotationSegment {
	anchors := anchorRE.FindAllStringIndex(text, -1)
	if len(anchors) == 0 {
		return nil
	}

	segments := make([]models.AnnotationSegment, 0, len(anchors))
	for i, loc := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		seg := parseBlock(text[loc[1]:end])
		finalize(&seg)
		segments = append(segments, seg)
	}
	return segments
}

// parseBlock reads one block. The block begins just after the anchor colon.
func parseBlock(block string) models.AnnotationSegment {
	seg := models.AnnotationSegment{StartTime: unset, EndTime: unset}

	anchorLine, body, _ := strings.Cut(block, "\n")
	if m := rangeRE.FindStringSubmatch(anchorLine); m != nil {
		seg.StartTime = timecode.Parse(m[1])
		seg.EndTime = timecode.Parse(m[2])
	} else if tc := timecodeRE.FindString(anchorLine); tc != "" {
		seg.StartTime = timecode.Parse(tc)
	}

	if m := endLineRE.FindStringSubmatch(body); m != nil {
		seg.EndTime = timecode.Parse(m[1])
		body = strings.Replace(body, m[0], "", 1)
	}

	seg.Description = blockDescription(body)
	seg.DetectedObjects = recoverEntities(block, models.EntityObject)
	seg.DetectedActions = recoverEntities(block, models.EntityAction)
	if scene, ok := recoverScene(block); ok {
		seg.SceneClassification = scene
	}
	seg.ConfidenceScore = recoverConfidence(block)
	return seg
}

// blockDescription prefers an explicit Description: field and otherwise
// takes the prose before the first structured marker.
func blockDescription(body string) string {
	loc := descKeyRE.FindStringIndex(body)
	if loc == nil {
		return truncateAtMarker(body)
	}

	rest := body[loc[1]:]
	// The value runs until the next key line.
	if next := keyLineRE.FindStringIndex(rest); next != nil && next[0] > 0 {
		rest = rest[:next[0]]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), "*"))
}
