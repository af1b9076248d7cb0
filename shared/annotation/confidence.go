package annotation

import "video-annotator/internal/models"

// ReadyThreshold is the overall confidence at which a set no longer needs
// human review.
const ReadyThreshold = 0.7

// OverallConfidence is the mean of the segment confidence scores that are
// present, or 0 when none are.
func OverallConfidence(segments []models.AnnotationSegment) float64 {
	var sum float64
	var n int
	for _, seg := range segments {
		if seg.ConfidenceScore == nil {
			continue
		}
		sum += *seg.ConfidenceScore
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func Classify(overall float64) models.Readiness {
	if overall >= ReadyThreshold {
		return models.ReadinessReady
	}
	return models.ReadinessNeedsReview
}

// Recompute refreshes set.OverallConfidence and returns the resulting readiness.
func Recompute(set *models.AnnotationSet) models.Readiness {
	set.OverallConfidence = OverallConfidence(set.Segments)
	return Classify(set.OverallConfidence)
}
