// Package timeline lays out detected entities as horizontal bands so that
// markers sharing a lane never overlap.
package timeline

import (
	"sort"

	"video-annotator/internal/models"
)

const (
	// BufferSeconds is the minimum gap between two items in the same lane.
	BufferSeconds = 0.5
	// MaxLanes bounds the lane search. Items that fit nowhere go to lane 0.
	MaxLanes = 10
	// LaneHeightPx is the vertical distance between lanes when rendered.
	LaneHeightPx = 12
)

// Item is one displayable interval.
type Item struct {
	Label        string
	Kind         models.EntityKind
	Start        float64
	End          float64
	Confidence   *float64
	SegmentIndex int
}

type Placement struct {
	Item Item
	Lane int
}

// Flatten collects the objects and actions of every segment, objects first
// within each segment.
func Flatten(set *models.AnnotationSet) []Item {
	if set == nil {
		return nil
	}

	var items []Item
	for i, seg := range set.Segments {
		for _, kind := range []models.EntityKind{models.EntityObject, models.EntityAction} {
			entities := seg.DetectedObjects
			if kind == models.EntityAction {
				entities = seg.DetectedActions
			}
			for _, e := range entities {
				items = append(items, Item{
					Label:        e.Label,
					Kind:         kind,
					Start:        e.StartTime,
					End:          e.EndTime,
					Confidence:   e.ConfidenceScore,
					SegmentIndex: i,
				})
			}
		}
	}
	return items
}

// AssignLanes places each item, in start-time order, into the lowest lane
// whose previous item ended at least BufferSeconds earlier. The input slice
// is not modified.
func AssignLanes(items []Item) []Placement {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var laneEnd [MaxLanes]float64
	var used [MaxLanes]bool

	placements := make([]Placement, 0, len(sorted))
	for _, item := range sorted {
		lane := -1
		for i := 0; i < MaxLanes; i++ {
			if !used[i] || item.Start >= laneEnd[i]+BufferSeconds {
				lane = i
				break
			}
		}

		if lane == -1 {
			// Dense input: accept the overlap instead of adding lanes.
			// Lane 0 keeps its previous end.
			placements = append(placements, Placement{Item: item, Lane: 0})
			continue
		}

		used[lane] = true
		laneEnd[lane] = item.End
		placements = append(placements, Placement{Item: item, Lane: lane})
	}
	return placements
}

// LaneOffset converts a lane index to a vertical pixel offset.
func LaneOffset(lane int) int {
	return lane * LaneHeightPx
}

// LaneCount returns the number of lanes used by placements.
func LaneCount(placements []Placement) int {
	n := 0
	for _, p := range placements {
		if p.Lane+1 > n {
			n = p.Lane + 1
		}
	}
	return n
}

// SegmentBounds returns the segments ordered by start time, leaving the set
// itself in its original order.
func SegmentBounds(set *models.AnnotationSet) []Item {
	if set == nil {
		return nil
	}
	items := make([]Item, 0, len(set.Segments))
	for i, seg := range set.Segments {
		items = append(items, Item{
			Label:        seg.SceneClassification,
			Start:        seg.StartTime,
			End:          seg.EndTime,
			Confidence:   seg.ConfidenceScore,
			SegmentIndex: i,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start < items[j].Start
	})
	return items
}

// Labels returns the distinct entity labels of a set in first-seen order.
func Labels(set *models.AnnotationSet) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, item := range Flatten(set) {
		if seen[item.Label] {
			continue
		}
		seen[item.Label] = true
		labels = append(labels, item.Label)
	}
	return labels
}
