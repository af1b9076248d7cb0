package annotation

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/timecode"
)

// Models sometimes put the structured fields into the free-text description
// instead of the JSON fields. The functions below pull them back out.

// A marker starts a line, optionally behind list or heading punctuation, or
// follows the end of a sentence. Scores inside entity entries never match.
const markerPrefix = `(?:^[ \t>#*-]*|[.;][ \t]+)\**`

var (
	markerRE = regexp.MustCompile(`(?im)` + markerPrefix +
		`(detected[ _]objects|detected[ _]actions|scene[ _]classification|overall[ _]confidence|confidence[ _]score)\**[ \t]*:`)

	entityLineRE = regexp.MustCompile(`(?im)^[ \t]*[-*•][ \t]+([^(\n]+?)` +
		`(?:[ \t]*[(,][ \t]*(?:confidence[ _]score|confidence)[ \t]*:[ \t]*([0-9]*\.?[0-9]+)[ \t]*(%?)[ \t]*\)?)?` +
		`(?:[ \t]*[\[(]?[ \t]*(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)[ \t]*(?:-|–|to)[ \t]*(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?)[ \t]*[\])]?)?` +
		`[ \t]*$`)

	sceneLineRE      = regexp.MustCompile(`(?im)` + markerPrefix + `scene[ _]classification\**[ \t]*:[ \t]*\**[ \t]*([^\n]*)`)
	overallLineRE    = regexp.MustCompile(`(?im)` + markerPrefix + `overall[ _]confidence\**[ \t]*:[ \t]*\**[ \t]*([0-9]*\.?[0-9]+)[ \t]*(%?)`)
	confidenceLineRE = regexp.MustCompile(`(?im)` + markerPrefix + `confidence[ _]score\**[ \t]*:[ \t]*\**[ \t]*([0-9]*\.?[0-9]+)[ \t]*(%?)`)
)

var unset = math.NaN()

func isSet(v float64) bool {
	return !math.IsNaN(v)
}

// recoverFields fills the empty fields of seg from markers embedded in its
// description, then cuts the description at the first marker.
func recoverFields(seg *models.AnnotationSegment) {
	text := seg.Description
	if markerRE.FindStringIndex(text) == nil {
		return
	}

	if len(seg.DetectedObjects) == 0 {
		seg.DetectedObjects = recoverEntities(text, models.EntityObject)
	}
	if len(seg.DetectedActions) == 0 {
		seg.DetectedActions = recoverEntities(text, models.EntityAction)
	}
	if seg.SceneClassification == "" {
		if scene, ok := recoverScene(text); ok {
			seg.SceneClassification = scene
		}
	}
	if seg.ConfidenceScore == nil {
		seg.ConfidenceScore = recoverConfidence(text)
	}

	seg.Description = truncateAtMarker(text)
}

// truncateAtMarker returns the prose preceding the first structured-field marker.
func truncateAtMarker(text string) string {
	loc := markerRE.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimRight(text[:loc[2]], " \t\r\n*#>-")
}

// recoverEntities reads the dash-prefixed entries listed under the marker for
// kind. Entries without a time range carry unset times.
func recoverEntities(text string, kind models.EntityKind) []models.DetectedEntity {
	block, ok := markerBlock(text, kind)
	if !ok {
		return nil
	}

	var entities []models.DetectedEntity
	for _, m := range entityLineRE.FindAllStringSubmatch(block, -1) {
		label := strings.Trim(strings.TrimSpace(m[1]), "*:,")
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}

		entity := models.DetectedEntity{Label: label, StartTime: unset, EndTime: unset}
		if m[2] != "" {
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				entity.ConfidenceScore = normalizeConfidence(v, m[3] == "%")
			}
		}
		if m[4] != "" && m[5] != "" {
			entity.StartTime = timecode.Parse(m[4])
			entity.EndTime = timecode.Parse(m[5])
		}
		entities = append(entities, entity)
	}
	if len(entities) > 0 {
		return entities
	}

	// "Detected objects: car, truck" on a single line.
	line, _, _ := strings.Cut(strings.TrimSpace(block), "\n")
	for _, label := range strings.Split(line, ",") {
		label = strings.TrimSpace(strings.Trim(strings.TrimSpace(label), "*."))
		if label == "" || strings.EqualFold(label, "none") {
			continue
		}
		entities = append(entities, models.DetectedEntity{Label: label, StartTime: unset, EndTime: unset})
	}
	return entities
}

// markerBlock returns the text between the marker for kind and the next marker.
func markerBlock(text string, kind models.EntityKind) (string, bool) {
	want := "objects"
	if kind == models.EntityAction {
		want = "actions"
	}

	locs := markerRE.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		if !strings.HasPrefix(name, "detected") || !strings.HasSuffix(name, want) {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		return text[loc[1]:end], true
	}
	return "", false
}

func recoverScene(text string) (string, bool) {
	m := sceneLineRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	scene := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*"))
	return scene, scene != ""
}

// recoverConfidence prefers an embedded confidence_score over overall_confidence.
func recoverConfidence(text string) *float64 {
	for _, re := range []*regexp.Regexp{confidenceLineRE, overallLineRE} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return normalizeConfidence(v, m[2] == "%")
		}
	}
	return nil
}

// normalizeConfidence maps percentages onto [0,1] and clamps the result.
// Without a % sign only whole numbers above 1 are read as percentages.
func normalizeConfidence(v float64, percent bool) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if percent || (v > 1 && v <= 100 && v == math.Trunc(v)) {
		v /= 100
	}
	return models.Float(math.Max(0, math.Min(1, v)))
}
