package ai

import (
	"fmt"
	"strings"
)

// Density controls how finely a video is split into segments.
type Density string

const (
	DensityScene  Density = "scene"
	DensityAction Density = "action"
)

func ParseDensity(s string) (Density, error) {
	switch Density(strings.ToLower(strings.TrimSpace(s))) {
	case DensityScene, "":
		return DensityScene, nil
	case DensityAction:
		return DensityAction, nil
	default:
		return "", fmt.Errorf("unknown annotation density %q (want scene or action)", s)
	}
}

// BuildAnnotationPrompt asks for time-coded segments at the given density.
// Labels, when present, become the preferred vocabulary.
func BuildAnnotationPrompt(density Density, labels []string, collectionDescription string) string {
	var b strings.Builder

	b.WriteString("You are annotating video footage to produce training data for a computer vision model.\n\n")

	if desc := strings.TrimSpace(collectionDescription); desc != "" {
		fmt.Fprintf(&b, "DATASET CONTEXT:\n%s\n\n", desc)
	}

	b.WriteString("INSTRUCTIONS:\n")
	if density == DensityAction {
		b.WriteString("1. Create one segment for every discrete action or event, even when several happen within one scene\n")
	} else {
		b.WriteString("1. Create one segment per scene; start a new segment whenever the setting or camera view changes\n")
	}
	b.WriteString(`2. Give every segment a start_timestamp and end_timestamp formatted as MM:SS (or HH:MM:SS past one hour)
3. Describe what happens in one or two sentences
4. Set scene_classification to a short tag for the environment
5. List detected_objects and detected_actions with a label, a confidence_score between 0 and 1, and their own start and end timestamps
6. Set confidence_score on each segment to your overall confidence in it
`)

	if len(labels) > 0 {
		fmt.Fprintf(&b, "\nPREFERRED LABELS (use these names whenever they apply, add others only when nothing fits):\n- %s\n",
			strings.Join(labels, "\n- "))
	}

	b.WriteString(`
Return ONLY a JSON object of the form:
{
  "annotations": [
    {
      "start_timestamp": "00:00",
      "end_timestamp": "00:05",
      "description": "...",
      "scene_classification": "...",
      "detected_objects": [{"label": "...", "confidence_score": 0.9, "start_timestamp": "00:00", "end_timestamp": "00:05"}],
      "detected_actions": [{"label": "...", "confidence_score": 0.8, "start_timestamp": "00:01", "end_timestamp": "00:04"}],
      "confidence_score": 0.85
    }
  ]
}`)

	return b.String()
}
