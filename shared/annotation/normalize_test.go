package annotation

import (
	"reflect"
	"testing"

	"video-annotator/internal/models"
)

const bareJSON = `{
  "annotations": [
    {
      "start_timestamp": "00:00",
      "end_timestamp": "00:05",
      "description": "A car waits at a red light.",
      "scene_classification": "urban intersection",
      "detected_objects": [
        {"label": "car", "confidence_score": 0.92, "start_timestamp": "00:00", "end_timestamp": "00:05"}
      ],
      "detected_actions": [
        {"label": "waiting", "confidence_score": 0.8, "start_timestamp": "00:01", "end_timestamp": "00:04"}
      ],
      "confidence_score": 0.9
    },
    {
      "start_timestamp": "00:05",
      "end_timestamp": "01:02:03",
      "description": "The light turns green and traffic moves.",
      "scene_classification": "urban",
      "detected_objects": [],
      "detected_actions": [
        {"label": "driving", "confidence_score": 0.75, "start_timestamp": "00:06", "end_timestamp": "00:09"}
      ]
    }
  ]
}`

func TestNormalizeSchemaConformant(t *testing.T) {
	result := NormalizeText(bareJSON)
	if result.Outcome != Structured {
		t.Fatalf("Outcome = %v, want %v", result.Outcome, Structured)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(result.Segments))
	}

	first := result.Segments[0]
	if first.StartTime != 0 || first.EndTime != 5 {
		t.Errorf("first segment = [%v, %v], want [0, 5]", first.StartTime, first.EndTime)
	}
	if first.Description != "A car waits at a red light." {
		t.Errorf("Description = %q", first.Description)
	}
	if first.SceneClassification != "urban intersection" {
		t.Errorf("SceneClassification = %q", first.SceneClassification)
	}
	if first.ConfidenceScore == nil || *first.ConfidenceScore != 0.9 {
		t.Errorf("ConfidenceScore = %v, want 0.9", first.ConfidenceScore)
	}

	wantObjects := []models.DetectedEntity{{Label: "car", ConfidenceScore: models.Float(0.92), StartTime: 0, EndTime: 5}}
	if !reflect.DeepEqual(first.DetectedObjects, wantObjects) {
		t.Errorf("DetectedObjects = %+v, want %+v", first.DetectedObjects, wantObjects)
	}
	wantActions := []models.DetectedEntity{{Label: "waiting", ConfidenceScore: models.Float(0.8), StartTime: 1, EndTime: 4}}
	if !reflect.DeepEqual(first.DetectedActions, wantActions) {
		t.Errorf("DetectedActions = %+v, want %+v", first.DetectedActions, wantActions)
	}

	second := result.Segments[1]
	if second.StartTime != 5 || second.EndTime != 3723 {
		t.Errorf("second segment = [%v, %v], want [5, 3723]", second.StartTime, second.EndTime)
	}
	if second.ConfidenceScore != nil {
		t.Errorf("ConfidenceScore = %v, want nil", *second.ConfidenceScore)
	}
	if second.DetectedObjects == nil || len(second.DetectedObjects) != 0 {
		t.Errorf("DetectedObjects = %#v, want empty slice", second.DetectedObjects)
	}
}

func TestNormalizeEnvelopes(t *testing.T) {
	want := NormalizeText(bareJSON)

	tests := []struct {
		name  string
		input string
	}{
		{"Fenced", "```json\n" + bareJSON + "\n```"},
		{"Bare fence", "```\n" + bareJSON + "\n```"},
		{"Leading prose", "Here is the analysis you asked for:\n" + bareJSON},
		{"Prose on both sides", "Sure!\n\n" + bareJSON + "\n\nLet me know if you need anything else."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.input)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("NormalizeText() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestNormalizeArrayAfterProse(t *testing.T) {
	input := `Here is the result: [{"start_timestamp": "00:00", "end_timestamp": "00:03", "description": "A"}, {"start_timestamp": "00:03", "end_timestamp": "00:07", "description": "B"}]`

	result := NormalizeText(input)
	if result.Outcome != Structured {
		t.Fatalf("Outcome = %v, want %v", result.Outcome, Structured)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(result.Segments))
	}
	if result.Segments[1].StartTime != 3 || result.Segments[1].EndTime != 7 {
		t.Errorf("second segment = [%v, %v], want [3, 7]", result.Segments[1].StartTime, result.Segments[1].EndTime)
	}
}

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantStart float64
		wantEnd   float64
	}{
		{
			name:      "Single scene object",
			input:     `{"scene": {"description": "Dog runs", "timestamp": "00:10"}}`,
			wantCount: 1,
			wantStart: 10,
			wantEnd:   10,
		},
		{
			name:      "Scenes array",
			input:     `{"scenes": [{"start_time": 3, "end_time": 7, "description": "a"}, {"start_time": 7, "end_time": 9, "description": "b"}]}`,
			wantCount: 2,
			wantStart: 3,
			wantEnd:   7,
		},
		{
			name:      "Root array",
			input:     `[{"start": "0:02", "end": "0:04", "description": "x"}]`,
			wantCount: 1,
			wantStart: 2,
			wantEnd:   4,
		},
		{
			name:      "Bare segment object",
			input:     `{"description": "Truck passes", "detected_objects": [{"label": "truck", "start_timestamp": "00:12", "end_timestamp": "00:20"}, {"label": "bus", "start_timestamp": "00:08", "end_timestamp": "00:15"}]}`,
			wantCount: 1,
			wantStart: 8,
			wantEnd:   20,
		},
		{
			name:      "Timestamp range",
			input:     `{"annotations": [{"timestamp": "00:05 - 00:12", "description": "x"}]}`,
			wantCount: 1,
			wantStart: 5,
			wantEnd:   12,
		},
		{
			name:      "No timestamps anywhere",
			input:     `{"annotations": [{"description": "Empty road"}]}`,
			wantCount: 1,
			wantStart: 0,
			wantEnd:   0,
		},
		{
			name:      "Reversed interval",
			input:     `{"annotations": [{"start_timestamp": "00:30", "end_timestamp": "00:10"}]}`,
			wantCount: 1,
			wantStart: 10,
			wantEnd:   30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeText(tt.input)
			if result.Outcome != Structured {
				t.Fatalf("Outcome = %v, want %v", result.Outcome, Structured)
			}
			if len(result.Segments) != tt.wantCount {
				t.Fatalf("len(Segments) = %d, want %d", len(result.Segments), tt.wantCount)
			}
			seg := result.Segments[0]
			if seg.StartTime != tt.wantStart || seg.EndTime != tt.wantEnd {
				t.Errorf("segment = [%v, %v], want [%v, %v]", seg.StartTime, seg.EndTime, tt.wantStart, tt.wantEnd)
			}
			if seg.StartTime > seg.EndTime {
				t.Errorf("StartTime %v > EndTime %v", seg.StartTime, seg.EndTime)
			}
		})
	}
}

func TestNormalizeAliases(t *testing.T) {
	input := `{"scene": {
		"description": "Dog runs across the yard",
		"timestamp": "00:10",
		"detected_objects": [{"object": "dog", "confidence_score": 85}],
		"detected_actions": [{"action": "running"}, "barking"],
		"overall_confidence": 0.6
	}}`

	result := NormalizeText(input)
	if len(result.Segments) != 1 {
		t.Fatalf("len(Segments) = %d, want 1", len(result.Segments))
	}
	seg := result.Segments[0]

	wantObjects := []models.DetectedEntity{{Label: "dog", ConfidenceScore: models.Float(0.85), StartTime: 10, EndTime: 10}}
	if !reflect.DeepEqual(seg.DetectedObjects, wantObjects) {
		t.Errorf("DetectedObjects = %+v, want %+v", seg.DetectedObjects, wantObjects)
	}
	wantActions := []models.DetectedEntity{
		{Label: "running", StartTime: 10, EndTime: 10},
		{Label: "barking", StartTime: 10, EndTime: 10},
	}
	if !reflect.DeepEqual(seg.DetectedActions, wantActions) {
		t.Errorf("DetectedActions = %+v, want %+v", seg.DetectedActions, wantActions)
	}
	if seg.ConfidenceScore == nil || *seg.ConfidenceScore != 0.6 {
		t.Errorf("ConfidenceScore = %v, want 0.6", seg.ConfidenceScore)
	}
}

func TestNormalizeRecoversEmbeddedFields(t *testing.T) {
	input := `{"annotations": [{
		"start_timestamp": "00:01",
		"end_timestamp": "00:06",
		"description": "A cyclist crosses the street.\nDetected objects:\n- bicycle (confidence_score: 0.88)\n- person (confidence_score: 0.9)\nDetected actions:\n- crossing (confidence_score: 0.7)\nScene classification: residential street\nConfidence score: 0.8"
	}]}`

	result := NormalizeText(input)
	if result.Outcome != Structured || len(result.Segments) != 1 {
		t.Fatalf("NormalizeText() = %+v, want one structured segment", result)
	}
	seg := result.Segments[0]

	if seg.Description != "A cyclist crosses the street." {
		t.Errorf("Description = %q, want %q", seg.Description, "A cyclist crosses the street.")
	}
	if seg.SceneClassification != "residential street" {
		t.Errorf("SceneClassification = %q, want %q", seg.SceneClassification, "residential street")
	}
	if seg.ConfidenceScore == nil || *seg.ConfidenceScore != 0.8 {
		t.Errorf("ConfidenceScore = %v, want 0.8", seg.ConfidenceScore)
	}

	wantObjects := []models.DetectedEntity{
		{Label: "bicycle", ConfidenceScore: models.Float(0.88), StartTime: 1, EndTime: 6},
		{Label: "person", ConfidenceScore: models.Float(0.9), StartTime: 1, EndTime: 6},
	}
	if !reflect.DeepEqual(seg.DetectedObjects, wantObjects) {
		t.Errorf("DetectedObjects = %+v, want %+v", seg.DetectedObjects, wantObjects)
	}
	wantActions := []models.DetectedEntity{
		{Label: "crossing", ConfidenceScore: models.Float(0.7), StartTime: 1, EndTime: 6},
	}
	if !reflect.DeepEqual(seg.DetectedActions, wantActions) {
		t.Errorf("DetectedActions = %+v, want %+v", seg.DetectedActions, wantActions)
	}
}

func TestNormalizeRecoveryKeepsExplicitFields(t *testing.T) {
	input := `{"annotations": [{
		"description": "Parking lot.\nDetected objects:\n- cart (confidence_score: 0.5)",
		"detected_objects": [{"label": "car", "confidence_score": 0.9}]
	}]}`

	seg := NormalizeText(input).Segments[0]
	if len(seg.DetectedObjects) != 1 || seg.DetectedObjects[0].Label != "car" {
		t.Errorf("DetectedObjects = %+v, want the explicit car entry", seg.DetectedObjects)
	}
	if seg.Description != "Parking lot." {
		t.Errorf("Description = %q, want %q", seg.Description, "Parking lot.")
	}
}

func TestNormalizePlainText(t *testing.T) {
	input := `Here is what I saw in the clip.

Start: 00:00 - 00:04
Description: A delivery van parks.
Scene classification: suburban street
Detected objects:
- van (confidence_score: 0.9)
Detected actions:
- parking (confidence_score: 0.8) 00:01 - 00:03
Overall confidence: 0.85

Timestamp: 00:04
End: 00:09
Description: The driver unloads boxes.
Detected objects:
- person (confidence_score: 0.95)
- box`

	result := NormalizeText(input)
	if result.Outcome != Recovered {
		t.Fatalf("Outcome = %v, want %v", result.Outcome, Recovered)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(result.Segments))
	}

	first := result.Segments[0]
	want := models.AnnotationSegment{
		StartTime:           0,
		EndTime:             4,
		Description:         "A delivery van parks.",
		SceneClassification: "suburban street",
		DetectedObjects: []models.DetectedEntity{
			{Label: "van", ConfidenceScore: models.Float(0.9), StartTime: 0, EndTime: 4},
		},
		DetectedActions: []models.DetectedEntity{
			{Label: "parking", ConfidenceScore: models.Float(0.8), StartTime: 1, EndTime: 3},
		},
		ConfidenceScore: models.Float(0.85),
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first segment = %+v, want %+v", first, want)
	}

	second := result.Segments[1]
	if second.StartTime != 4 || second.EndTime != 9 {
		t.Errorf("second segment = [%v, %v], want [4, 9]", second.StartTime, second.EndTime)
	}
	if second.Description != "The driver unloads boxes." {
		t.Errorf("Description = %q", second.Description)
	}
	if len(second.DetectedObjects) != 2 || second.DetectedObjects[1].Label != "box" {
		t.Errorf("DetectedObjects = %+v", second.DetectedObjects)
	}
	if second.DetectedObjects[1].ConfidenceScore != nil {
		t.Errorf("box ConfidenceScore = %v, want nil", *second.DetectedObjects[1].ConfidenceScore)
	}
	if second.ConfidenceScore != nil {
		t.Errorf("ConfidenceScore = %v, want nil", *second.ConfidenceScore)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Whitespace", "   \n\t"},
		{"Prose only", "I could not analyze this video."},
		{"JSON without segments", `{"foo": 1}`},
		{"Empty annotations", `{"annotations": []}`},
		{"Broken JSON and no anchors", `{"annotations": [{"description": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeText(tt.input)
			if result.Outcome != Empty {
				t.Errorf("Outcome = %v, want %v", result.Outcome, Empty)
			}
			if len(result.Segments) != 0 {
				t.Errorf("len(Segments) = %d, want 0", len(result.Segments))
			}
		})
	}
}

func TestNormalizeRepairsJSON(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		wantDescription string
	}{
		{
			name:            "Trailing commas",
			input:           `{"annotations":[{"start_timestamp":"00:01","end_timestamp":"00:02","description":"x",},]}`,
			wantDescription: "x",
		},
		{
			name: "Unescaped quotes",
			input: `{
  "annotations": [
    {
      "start_timestamp": "00:01",
      "end_timestamp": "00:03",
      "description": "Sign reads "STOP" clearly"
    }
  ]
}`,
			wantDescription: `Sign reads "STOP" clearly`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeText(tt.input)
			if result.Outcome != Structured || len(result.Segments) != 1 {
				t.Fatalf("NormalizeText() = %+v, want one structured segment", result)
			}
			if got := result.Segments[0].Description; got != tt.wantDescription {
				t.Errorf("Description = %q, want %q", got, tt.wantDescription)
			}
		})
	}
}

func TestNormalizeDecodedValue(t *testing.T) {
	data := map[string]any{
		"annotations": []any{
			map[string]any{"start_timestamp": "00:02", "description": "x", "confidence_score": 0.5},
		},
	}

	result := Normalize(data)
	if result.Outcome != Structured || len(result.Segments) != 1 {
		t.Fatalf("Normalize() = %+v, want one structured segment", result)
	}
	seg := result.Segments[0]
	if seg.StartTime != 2 || seg.EndTime != 2 {
		t.Errorf("segment = [%v, %v], want [2, 2]", seg.StartTime, seg.EndTime)
	}

	if got := Normalize(nil); got.Outcome != Empty {
		t.Errorf("Normalize(nil).Outcome = %v, want %v", got.Outcome, Empty)
	}
	if got := Normalize([]byte(bareJSON)); len(got.Segments) != 2 {
		t.Errorf("Normalize([]byte) returned %d segments, want 2", len(got.Segments))
	}
}

func TestStripEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"Fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"Prose around object", "result: {\"a\":1} done", `{"a":1}`, true},
		{"Array", "[1, 2]", "[1, 2]", true},
		{"Array after prose", "Result: [1, 2]", "[1, 2]", true},
		{"Nothing", "no json", "", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StripEnvelope(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("StripEnvelope(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
