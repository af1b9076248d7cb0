package annotation

import (
	"testing"

	"video-annotator/internal/models"
)

func TestTruncateAtMarker(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"No marker", "  A quiet street.  ", "A quiet street."},
		{"Objects marker", "A quiet street.\nDetected objects:\n- tree", "A quiet street."},
		{"Markdown marker", "Busy road.\n\n**Scene Classification:** highway", "Busy road."},
		{"Inline marker", "Busy road. Overall confidence: 0.4", "Busy road."},
		{"Marker only", "detected_actions: - walking", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateAtMarker(tt.input); got != tt.want {
				t.Errorf("truncateAtMarker(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRecoverEntities(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		kind       models.EntityKind
		wantLabels []string
	}{
		{
			name:       "Dash entries",
			text:       "Detected objects:\n- car (confidence_score: 0.9)\n- truck (confidence_score: 0.7)\nDetected actions:\n- turning",
			kind:       models.EntityObject,
			wantLabels: []string{"car", "truck"},
		},
		{
			name:       "Actions after objects",
			text:       "Detected objects:\n- car (confidence_score: 0.9)\nDetected actions:\n- turning\n- braking (confidence_score: 0.6)",
			kind:       models.EntityAction,
			wantLabels: []string{"turning", "braking"},
		},
		{
			name:       "Markdown heading",
			text:       "**Detected Objects:**\n* pedestrian (confidence_score: 92%)",
			kind:       models.EntityObject,
			wantLabels: []string{"pedestrian"},
		},
		{
			name:       "Comma list",
			text:       "detected_objects: car, truck, none.",
			kind:       models.EntityObject,
			wantLabels: []string{"car", "truck"},
		},
		{
			name:       "Comma scores",
			text:       "Detected objects:\n- car, confidence score: 0.9\n- truck, confidence score: 0.8",
			kind:       models.EntityObject,
			wantLabels: []string{"car", "truck"},
		},
		{
			name:       "Spaced parenthesis",
			text:       "Detected objects:\n- man ( confidence_score: 0.7)\n- dog",
			kind:       models.EntityObject,
			wantLabels: []string{"man", "dog"},
		},
		{
			name:       "Missing marker",
			text:       "- car (confidence_score: 0.9)",
			kind:       models.EntityObject,
			wantLabels: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recoverEntities(tt.text, tt.kind)
			if len(got) != len(tt.wantLabels) {
				t.Fatalf("recoverEntities() returned %d entities, want %d: %+v", len(got), len(tt.wantLabels), got)
			}
			for i, label := range tt.wantLabels {
				if got[i].Label != label {
					t.Errorf("entity %d label = %q, want %q", i, got[i].Label, label)
				}
			}
		})
	}
}

func TestRecoverEntityDetails(t *testing.T) {
	got := recoverEntities("Detected actions:\n- merging (confidence_score: 85%) [01:05 - 01:09]", models.EntityAction)
	if len(got) != 1 {
		t.Fatalf("recoverEntities() returned %d entities, want 1", len(got))
	}
	e := got[0]
	if e.ConfidenceScore == nil || *e.ConfidenceScore != 0.85 {
		t.Errorf("ConfidenceScore = %v, want 0.85", e.ConfidenceScore)
	}
	if e.StartTime != 65 || e.EndTime != 69 {
		t.Errorf("interval = [%v, %v], want [65, 69]", e.StartTime, e.EndTime)
	}

	untimed := recoverEntities("Detected actions:\n- idling", models.EntityAction)
	if len(untimed) != 1 || isSet(untimed[0].StartTime) || isSet(untimed[0].EndTime) {
		t.Errorf("untimed entity = %+v, want unset times", untimed)
	}
}

func TestRecoverScalars(t *testing.T) {
	text := "Clip.\nScene classification: **parking lot**\nOverall confidence: 0.65\n"
	if scene, ok := recoverScene(text); !ok || scene != "parking lot" {
		t.Errorf("recoverScene() = (%q, %v), want (%q, true)", scene, ok, "parking lot")
	}
	if c := recoverConfidence(text); c == nil || *c != 0.65 {
		t.Errorf("recoverConfidence() = %v, want 0.65", c)
	}

	both := "confidence_score: 0.4\noverall_confidence: 0.9"
	if c := recoverConfidence(both); c == nil || *c != 0.4 {
		t.Errorf("recoverConfidence() = %v, want 0.4 (segment score wins)", c)
	}

	if c := recoverConfidence("no numbers"); c != nil {
		t.Errorf("recoverConfidence() = %v, want nil", *c)
	}

	if c := recoverConfidence("Detected objects:\n- car, confidence score: 0.9\n- man ( confidence_score: 0.7)"); c != nil {
		t.Errorf("recoverConfidence() = %v, want nil for entity scores", *c)
	}
}

func TestRecoverFieldsInlineEntityScores(t *testing.T) {
	seg := models.AnnotationSegment{
		Description: "Street scene.\nDetected objects:\n- car, confidence score: 0.9\n- truck, confidence score: 0.8\nConfidence score: 0.5",
	}
	recoverFields(&seg)

	if seg.Description != "Street scene." {
		t.Errorf("Description = %q, want %q", seg.Description, "Street scene.")
	}
	if seg.ConfidenceScore == nil || *seg.ConfidenceScore != 0.5 {
		t.Errorf("ConfidenceScore = %v, want 0.5", seg.ConfidenceScore)
	}

	want := []struct {
		label string
		score float64
	}{{"car", 0.9}, {"truck", 0.8}}
	if len(seg.DetectedObjects) != len(want) {
		t.Fatalf("DetectedObjects = %+v, want %d entries", seg.DetectedObjects, len(want))
	}
	for i, w := range want {
		got := seg.DetectedObjects[i]
		if got.Label != w.label {
			t.Errorf("object %d label = %q, want %q", i, got.Label, w.label)
		}
		if got.ConfidenceScore == nil || *got.ConfidenceScore != w.score {
			t.Errorf("object %d ConfidenceScore = %v, want %v", i, got.ConfidenceScore, w.score)
		}
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		percent bool
		want    float64
	}{
		{"Fraction", 0.42, false, 0.42},
		{"One", 1, false, 1},
		{"Percent scale", 85, false, 0.85},
		{"Percent sign", 50, true, 0.5},
		{"Negative", -0.3, false, 0},
		{"Too large", 250, false, 1},
		{"Fraction above one", 1.5, false, 1},
		{"Fractional percent sign", 92.5, true, 0.925},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeConfidence(tt.value, tt.percent)
			if got == nil || *got != tt.want {
				t.Errorf("normalizeConfidence(%v, %v) = %v, want %v", tt.value, tt.percent, got, tt.want)
			}
		})
	}
}
