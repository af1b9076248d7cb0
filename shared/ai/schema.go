package ai

import "google.golang.org/genai"

const timestampFormat = "Timestamp as MM:SS or HH:MM:SS"

func entitySchema(what string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label":            {Type: genai.TypeString, Description: what},
			"confidence_score": {Type: genai.TypeNumber, Description: "Confidence between 0 and 1"},
			"start_timestamp":  {Type: genai.TypeString, Description: timestampFormat},
			"end_timestamp":    {Type: genai.TypeString, Description: timestampFormat},
		},
		Required: []string{"label", "confidence_score", "start_timestamp", "end_timestamp"},
	}
}

// AnnotationSchema is the structured output requested for annotation runs:
// an "annotations" array of segments, each with two entity arrays.
func AnnotationSchema() *genai.Schema {
	segmentFields := []string{
		"start_timestamp",
		"end_timestamp",
		"description",
		"scene_classification",
		"detected_objects",
		"detected_actions",
	}

	segment := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"start_timestamp":      {Type: genai.TypeString, Description: timestampFormat},
			"end_timestamp":        {Type: genai.TypeString, Description: timestampFormat},
			"description":          {Type: genai.TypeString},
			"scene_classification": {Type: genai.TypeString},
			"detected_objects":     {Type: genai.TypeArray, Items: entitySchema("Object name")},
			"detected_actions":     {Type: genai.TypeArray, Items: entitySchema("Action name")},
			"confidence_score":     {Type: genai.TypeNumber, Description: "Confidence between 0 and 1"},
		},
		Required: segmentFields,
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"annotations": {Type: genai.TypeArray, Items: segment},
		},
		Required: []string{"annotations"},
	}
}

// SuggestedClassesSchema requests {"suggested_classes": [...]}.
func SuggestedClassesSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggested_classes": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"suggested_classes"},
	}
}
